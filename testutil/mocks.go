package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Steam Web API paths served by MockSteamServer.
const (
	PathPlayerSummaries = "/ISteamUser/GetPlayerSummaries/v0002/"
	PathOwnedGames      = "/IPlayerService/GetOwnedGames/v0001/"
	PathRecentGames     = "/IPlayerService/GetRecentlyPlayedGames/v0001/"
	PathUserStats       = "/ISteamUserStats/GetUserStatsForGame/v0002/"
	PathSchema          = "/ISteamUserStats/GetSchemaForGame/v2/"
	PathPlayerBans      = "/ISteamUser/GetPlayerBans/v1/"
	PathFriendList      = "/ISteamUser/GetFriendList/v0001/"
)

// MockSteamServer creates a test server that mocks Steam Web API responses
type MockSteamServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

// NewMockSteamServer creates a new mock Steam Web API server
func NewMockSteamServer(t *testing.T) *MockSteamServer {
	t.Helper()
	m := &MockSteamServer{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.hits[r.URL.Path]++
		handler, ok := m.handlers[r.URL.Path]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Handle registers a raw handler for path.
func (m *MockSteamServer) Handle(path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = h
}

// Hits reports how many requests reached path.
func (m *MockSteamServer) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// MockJSON serves the same body for every request on path.
func (m *MockSteamServer) MockJSON(path string, body any) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, body)
	})
}

// MockStatus answers every request on path with status and a text body.
func (m *MockSteamServer) MockStatus(path string, status int) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(http.StatusText(status)))
	})
}

// MockPlayerSummaries serves players keyed by steam id; comma separated
// steamids return every known match.
func (m *MockSteamServer) MockPlayerSummaries(players map[string]map[string]any) {
	m.Handle(PathPlayerSummaries, func(w http.ResponseWriter, r *http.Request) {
		out := []map[string]any{}
		for _, id := range strings.Split(r.URL.Query().Get("steamids"), ",") {
			if p, ok := players[id]; ok {
				out = append(out, p)
			}
		}
		writeJSON(w, map[string]any{"response": map[string]any{"players": out}})
	})
}

// MockOwnedGames serves libraries keyed by steam id. Unknown ids get an empty response object.
func (m *MockSteamServer) MockOwnedGames(libraries map[string][]map[string]any) {
	m.Handle(PathOwnedGames, func(w http.ResponseWriter, r *http.Request) {
		games, ok := libraries[r.URL.Query().Get("steamid")]
		if !ok {
			writeJSON(w, map[string]any{"response": map[string]any{}})
			return
		}
		writeJSON(w, map[string]any{"response": map[string]any{"game_count": len(games), "games": games}})
	})
}

// MockFriendLists serves friend ids keyed by steam id. Unknown ids get 401 like a private profile.
func (m *MockSteamServer) MockFriendLists(friends map[string][]string) {
	m.Handle(PathFriendList, func(w http.ResponseWriter, r *http.Request) {
		ids, ok := friends[r.URL.Query().Get("steamid")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		list := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			list = append(list, map[string]any{"steamid": id, "relationship": "friend", "friend_since": 0})
		}
		writeJSON(w, map[string]any{"friendslist": map[string]any{"friends": list}})
	})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // test mock response
}
