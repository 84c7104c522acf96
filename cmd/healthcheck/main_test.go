package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthURL(t *testing.T) {
	tests := []struct {
		explicit, addr, want string
	}{
		{"", "", "http://localhost:8080/healthz"},
		{"", ":9090", "http://localhost:9090/healthz"},
		{"", "0.0.0.0:7000", "http://localhost:7000/healthz"},
		{"", "bad:", "http://localhost:8080/healthz"},
		{"http://bot:1/healthz", ":9090", "http://bot:1/healthz"},
	}
	for _, tt := range tests {
		if got := healthURL(tt.explicit, tt.addr); got != tt.want {
			t.Errorf("healthURL(%q, %q) = %q, want %q", tt.explicit, tt.addr, got, tt.want)
		}
	}
}

func TestProbe(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer ok.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if !probe(context.Background(), ok.URL) {
		t.Error("expected healthy probe")
	}
	if probe(context.Background(), down.URL) {
		t.Error("expected 503 to fail the probe")
	}
	if probe(context.Background(), "http://127.0.0.1:1/healthz") {
		t.Error("expected connection error to fail the probe")
	}
}
