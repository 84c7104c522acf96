package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/steam-chat-bot/testutil"
)

func readyz(t *testing.T, deps Deps) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	NewMux(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rr.Code, resp
}

func TestReadyzReady(t *testing.T) {
	code, resp := readyz(t, newTestDeps(t))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", code, resp)
	}
	if resp["status"] != "ready" {
		t.Fatalf("expected status=ready, got %q", resp["status"])
	}
}

func TestReadyzNotReady(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Deps)
		failed string
	}{
		{"no registry", func(d *Deps) { d.Bindings = nil }, "bindings"},
		{"no api key", func(d *Deps) { d.Steam = fakeSteam{} }, "steam_api_key"},
		{"no steam client", func(d *Deps) { d.Steam = nil }, "steam_api_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.mutate(&deps)
			code, resp := readyz(t, deps)
			if code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", code)
			}
			if resp["status"] != "not_ready" || resp["failed_check"] != tt.failed {
				t.Fatalf("unexpected body %v", resp)
			}
		})
	}
}

func TestHealthAndReadyWithPostgres(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := newTestDeps(t)
	deps.DB = db

	rr := httptest.NewRecorder()
	NewMux(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rr.Code)
	}
	if code, resp := readyz(t, deps); code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d (%v)", code, resp)
	}
}

func TestStatus(t *testing.T) {
	deps := newTestDeps(t)
	rr := httptest.NewRecorder()
	NewMux(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp statusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CacheEntries != 3 || !resp.APIKey || len(resp.Commands) != 8 {
		t.Errorf("unexpected status %+v", resp)
	}

	rr = httptest.NewRecorder()
	NewMux(deps).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}
