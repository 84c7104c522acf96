// Package binding keeps the chat user → SteamID64 bindings and the per-group
// index derived from them.
//
// The group index is not a live view. Bind and Link push the latest Steam ID
// into every group entry of the user and then attach the user to the current
// group; the store is written once, and only when something changed.
package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/onnwee/steam-chat-bot/telemetry"
)

var (
	// ErrInvalidSteamID is returned for anything other than 17 ASCII digits.
	ErrInvalidSteamID = errors.New("invalid steam id")
	// ErrNotBound is returned when a sync is requested for an unbound user.
	ErrNotBound = errors.New("user has no steam binding")
)

// steamIDLength is the length of a decimal SteamID64.
const steamIDLength = 17

// ValidateSteamID reports ErrInvalidSteamID unless s is exactly 17 ASCII digits.
func ValidateSteamID(s string) error {
	if len(s) != steamIDLength {
		return fmt.Errorf("%w: %q", ErrInvalidSteamID, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidSteamID, s)
		}
	}
	return nil
}

// Snapshot is the persisted form of the registry.
type Snapshot struct {
	Users  map[string]string            `json:"users"`
	Groups map[string]map[string]string `json:"groups"`
}

// Backend loads and stores snapshots.
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// BindResult describes what Bind did.
type BindResult struct {
	SteamID string
	Created bool // a Steam ID argument was stored
	Synced  bool // an existing binding was synced to the group
	Changed bool // the store was written
}

// Registry owns the binding state. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	backend Backend
	users   map[string]string
	groups  map[string]map[string]string
}

// Open loads the registry from backend.
func Open(ctx context.Context, backend Backend) (*Registry, error) {
	snap, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bindings: %w", err)
	}
	r := &Registry{backend: backend, users: snap.Users, groups: snap.Groups}
	if r.users == nil {
		r.users = map[string]string{}
	}
	if r.groups == nil {
		r.groups = map[string]map[string]string{}
	}
	for g, members := range r.groups {
		if members == nil {
			r.groups[g] = map[string]string{}
		}
	}
	telemetry.SetBindingCounts(len(r.users), len(r.groups))
	slog.Info("bindings loaded", slog.String("component", "binding"), slog.Int("users", len(r.users)), slog.Int("groups", len(r.groups)))
	return r, nil
}

// Lookup returns the Steam ID bound to userID.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.users[userID]
	return id, ok && id != ""
}

// Group returns a copy of the group's user → Steam ID index.
func (r *Registry) Group(groupID string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.groups[groupID])
}

// Users returns the number of bound users.
func (r *Registry) Users() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Groups returns the number of indexed groups.
func (r *Registry) Groups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// Snapshot returns a deep copy of the current state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Bind stores steamID for userID, or when steamID is empty syncs the existing
// binding into groupID. An invalid steamID leaves the registry untouched.
// If persisting fails the in-memory change is kept and the error returned.
func (r *Registry) Bind(ctx context.Context, userID, groupID, steamID string) (BindResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res BindResult
	changed := false
	if steamID != "" {
		if err := ValidateSteamID(steamID); err != nil {
			return res, err
		}
		r.users[userID] = steamID
		res.Created = true
		changed = true
	} else {
		existing, ok := r.users[userID]
		if !ok || existing == "" {
			return res, ErrNotBound
		}
		steamID = existing
		res.Synced = true
	}
	res.SteamID = steamID

	if r.syncGroupValues(userID) {
		changed = true
	}
	if r.linkUserToGroup(userID, groupID) {
		changed = true
	}
	res.Changed = changed
	if changed {
		return res, r.persistLocked(ctx)
	}
	return res, nil
}

// Link attaches an already bound user to groupID. It reports whether the
// index changed.
func (r *Registry) Link(ctx context.Context, userID, groupID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.linkUserToGroup(userID, groupID) {
		return false, nil
	}
	return true, r.persistLocked(ctx)
}

// Close releases the backend when it holds resources.
func (r *Registry) Close() error {
	if c, ok := r.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (r *Registry) linkUserToGroup(userID, groupID string) bool {
	if groupID == "" {
		return false
	}
	steamID, ok := r.users[userID]
	if !ok || steamID == "" {
		return false
	}
	members := r.groups[groupID]
	if members == nil {
		members = map[string]string{}
		r.groups[groupID] = members
	}
	if members[userID] == steamID {
		return false
	}
	members[userID] = steamID
	return true
}

func (r *Registry) syncGroupValues(userID string) bool {
	steamID, ok := r.users[userID]
	if !ok || steamID == "" {
		return false
	}
	changed := false
	for _, members := range r.groups {
		if cur, ok := members[userID]; ok && cur != steamID {
			members[userID] = steamID
			changed = true
		}
	}
	return changed
}

func (r *Registry) snapshotLocked() Snapshot {
	groups := make(map[string]map[string]string, len(r.groups))
	for g, members := range r.groups {
		groups[g] = maps.Clone(members)
	}
	return Snapshot{Users: maps.Clone(r.users), Groups: groups}
}

func (r *Registry) persistLocked(ctx context.Context) error {
	telemetry.SetBindingCounts(len(r.users), len(r.groups))
	if err := r.backend.Save(ctx, r.snapshotLocked()); err != nil {
		telemetry.LoggerWithCorr(ctx).Error("failed to save bindings", slog.String("component", "binding"), slog.Any("err", err))
		return fmt.Errorf("save bindings: %w", err)
	}
	return nil
}
