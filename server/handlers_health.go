package server

import (
	"errors"
	"net/http"

	"github.com/onnwee/steam-chat-bot/db"
)

// HandleHealthz responds to liveness probes. The database is pinged only when
// bindings are stored in Postgres.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.deps.DB != nil {
		if err := db.Ping(r.Context(), h.deps.DB); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probes with detailed checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"bindings", func() error {
			if h.deps.Bindings == nil {
				return errors.New("binding registry not loaded")
			}
			return nil
		}},
		{"steam_api_key", func() error {
			if h.deps.Steam == nil || !h.deps.Steam.HasKey() {
				return errors.New("STEAM_API_KEY not configured")
			}
			return nil
		}},
	}
	if h.deps.DB != nil {
		checks = append(checks, struct {
			name string
			fn   func() error
		}{"database", func() error { return db.Ping(r.Context(), h.deps.DB) }})
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
