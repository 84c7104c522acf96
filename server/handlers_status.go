package server

import (
	"net/http"

	"github.com/onnwee/steam-chat-bot/commands"
	"github.com/onnwee/steam-chat-bot/telemetry"
)

// statusResponse is the body of GET /status.
type statusResponse struct {
	Users        int      `json:"users"`
	Groups       int      `json:"groups"`
	CacheEntries int      `json:"cache_entries"`
	APIKey       bool     `json:"api_key"`
	Tracing      bool     `json:"tracing"`
	Commands     []string `json:"commands"`
}

// HandleStatus reports registry and cache sizes. Secrets are never included.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{
		Tracing:  telemetry.IsTracingEnabled(),
		Commands: commands.Names(),
	}
	if h.deps.Bindings != nil {
		resp.Users = h.deps.Bindings.Users()
		resp.Groups = h.deps.Bindings.Groups()
	}
	if h.deps.Steam != nil {
		resp.CacheEntries = h.deps.Steam.CacheLen()
		resp.APIKey = h.deps.Steam.HasKey()
	}
	writeJSON(w, http.StatusOK, resp)
}
