package commands

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/render"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

const (
	sid1 = "76561198000000001"
	sid2 = "76561198000000002"
	sid3 = "76561198000000003"
)

type fakeSteam struct {
	mu        sync.Mutex
	noKey     bool
	summaries map[string]steamapi.PlayerSummary
	libraries map[string][]steamapi.Game
	recent    map[string][]steamapi.Game
	stats     map[string]*steamapi.UserStats // "<sid>_<appid>"
	schemas   map[int]*steamapi.GameSchema
	friends   map[string][]string
	bans      map[string]steamapi.PlayerBan
	forced    int
	calls     map[string]int
}

func newFakeSteam() *fakeSteam {
	return &fakeSteam{
		summaries: map[string]steamapi.PlayerSummary{},
		libraries: map[string][]steamapi.Game{},
		recent:    map[string][]steamapi.Game{},
		stats:     map[string]*steamapi.UserStats{},
		schemas:   map[int]*steamapi.GameSchema{},
		friends:   map[string][]string{},
		bans:      map[string]steamapi.PlayerBan{},
		calls:     map[string]int{},
	}
}

func (f *fakeSteam) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeSteam) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSteam) HasKey() bool { return !f.noKey }

func (f *fakeSteam) GetPlayerSummary(ctx context.Context, id string, force bool) *steamapi.PlayerSummary {
	f.hit("summary")
	if force {
		f.mu.Lock()
		f.forced++
		f.mu.Unlock()
	}
	p, ok := f.summaries[id]
	if !ok {
		return nil
	}
	return &p
}

func (f *fakeSteam) GetPlayerSummaries(ctx context.Context, ids []string, force bool) []steamapi.PlayerSummary {
	f.hit("summaries")
	var out []steamapi.PlayerSummary
	for _, id := range ids {
		if p, ok := f.summaries[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeSteam) GetOwnedGames(ctx context.Context, id string) []steamapi.Game {
	f.hit("owned")
	return append([]steamapi.Game(nil), f.libraries[id]...)
}

func (f *fakeSteam) GetRecentlyPlayedGames(ctx context.Context, id string) []steamapi.Game {
	f.hit("recent")
	return append([]steamapi.Game(nil), f.recent[id]...)
}

func (f *fakeSteam) GetUserStatsForGame(ctx context.Context, id string, appID int) *steamapi.UserStats {
	f.hit("stats")
	return f.stats[fmt.Sprintf("%s_%d", id, appID)]
}

func (f *fakeSteam) GetSchemaForGame(ctx context.Context, appID int) *steamapi.GameSchema {
	f.hit("schema")
	return f.schemas[appID]
}

func (f *fakeSteam) GetPlayerBans(ctx context.Context, ids ...string) []steamapi.PlayerBan {
	f.hit("bans")
	var out []steamapi.PlayerBan
	for _, id := range ids {
		if b, ok := f.bans[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeSteam) GetFriendList(ctx context.Context, id string) []string {
	f.hit("friends")
	return f.friends[id]
}

type fakeCovers struct{}

func (fakeCovers) Resolve(ctx context.Context, appID int, variant cover.Variant) string {
	if appID == 0 {
		return ""
	}
	return fmt.Sprintf("cover://%d/%s", appID, variant)
}

func (c fakeCovers) ResolveMany(ctx context.Context, appIDs []int, variant cover.Variant) map[int]string {
	out := map[int]string{}
	for _, id := range appIDs {
		if id != 0 {
			out[id] = c.Resolve(ctx, id, variant)
		}
	}
	return out
}

type fakeRenderer struct {
	mu   sync.Mutex
	reqs []render.Request
	err  error
}

func (r *fakeRenderer) Render(ctx context.Context, req render.Request) (*render.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return nil, r.err
	}
	return &render.Result{URL: "https://img.test/" + req.Template + ".jpg"}, nil
}

func (r *fakeRenderer) last(t *testing.T) render.Request {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.reqs, "expected a render call")
	return r.reqs[len(r.reqs)-1]
}

type recorder struct {
	mu      sync.Mutex
	replies []Reply
}

func (r *recorder) Send(ctx context.Context, reply Reply) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rep := range r.replies {
		if rep.Image == nil {
			out = append(out, rep.Text)
		}
	}
	return out
}

func (r *recorder) images() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rep := range r.replies {
		if rep.Image != nil {
			n++
		}
	}
	return n
}

type memBackend struct {
	mu    sync.Mutex
	snap  binding.Snapshot
	saves int
}

func (m *memBackend) Load(ctx context.Context) (binding.Snapshot, error) { return m.snap, nil }

func (m *memBackend) Save(ctx context.Context, s binding.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.snap = s
	return nil
}

type harness struct {
	steam    *fakeSteam
	renderer *fakeRenderer
	registry *binding.Registry
	backend  *memBackend
	svc      *Service
}

func newHarness(t *testing.T, snap binding.Snapshot) *harness {
	t.Helper()
	b := &memBackend{snap: snap}
	reg, err := binding.Open(context.Background(), b)
	require.NoError(t, err)
	h := &harness{steam: newFakeSteam(), renderer: &fakeRenderer{}, registry: reg, backend: b}
	h.svc = New(h.steam, reg, fakeCovers{}, h.renderer, Settings{ImageQuality: 90})
	return h
}

func (h *harness) run(t *testing.T, ev Event) *recorder {
	t.Helper()
	rec := &recorder{}
	require.True(t, h.svc.Handle(context.Background(), ev, rec), "command %q not handled", ev.Command)
	return rec
}

func game(appID int, name string, minutes int) steamapi.Game {
	return steamapi.Game{AppID: appID, Name: name, PlaytimeForever: minutes}
}

func publicSummary(id, name string) steamapi.PlayerSummary {
	return steamapi.PlayerSummary{SteamID: id, PersonaName: name, CommunityVisibilityState: 3, AvatarFull: "https://avatars.test/" + id + "_full.jpg"}
}
