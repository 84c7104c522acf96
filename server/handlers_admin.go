package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/telemetry"
)

// bindRequest is the body of POST /admin/bindings.
type bindRequest struct {
	User    string `json:"user"`
	Group   string `json:"group"`
	SteamID string `json:"steam_id"`
}

type bindResponse struct {
	SteamID string `json:"steam_id"`
	Created bool   `json:"created"`
	Synced  bool   `json:"synced"`
	Changed bool   `json:"changed"`
}

// HandleAdminBindings lists bindings (GET, optionally ?group=) or binds a
// user through the registry (POST) with the same validation as chat.
func (h *Handlers) HandleAdminBindings(w http.ResponseWriter, r *http.Request) {
	if h.deps.Bindings == nil {
		http.Error(w, "bindings not loaded", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if group := r.URL.Query().Get("group"); group != "" {
			writeJSON(w, http.StatusOK, map[string]any{"group": group, "members": h.deps.Bindings.Group(group)})
			return
		}
		writeJSON(w, http.StatusOK, h.deps.Bindings.Snapshot())
	case http.MethodPost:
		var body bindRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.User = strings.ToLower(strings.TrimSpace(body.User))
		body.Group = strings.ToLower(strings.TrimSpace(body.Group))
		if body.User == "" {
			http.Error(w, "user is required", http.StatusBadRequest)
			return
		}
		res, err := h.deps.Bindings.Bind(r.Context(), body.User, body.Group, strings.TrimSpace(body.SteamID))
		switch {
		case errors.Is(err, binding.ErrInvalidSteamID):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, binding.ErrNotBound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case err != nil:
			telemetry.LoggerWithCorr(r.Context()).Error("admin bind not persisted", slog.String("user", body.User), slog.Any("err", err))
			http.Error(w, "binding kept in memory but not persisted", http.StatusInternalServerError)
			return
		}
		telemetry.LoggerWithCorr(r.Context()).Info("admin bind", slog.String("user", body.User), slog.String("group", body.Group), slog.Bool("changed", res.Changed))
		writeJSON(w, http.StatusOK, bindResponse{SteamID: res.SteamID, Created: res.Created, Synced: res.Synced, Changed: res.Changed})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
