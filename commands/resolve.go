package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/telemetry"
)

// literalIDMinLen is the length an all-digit argument must exceed to be used
// as a Steam ID directly.
const literalIDMinLen = 10

// resolveTarget picks the Steam ID a command should act on: the first
// mentioned user's binding, then a literal numeric argument, then (when
// fallback is allowed) the sender's own binding. Bindings used inside a group
// are linked into that group's index. Empty means unresolved.
func (s *Service) resolveTarget(ctx context.Context, ev Event, arg string, fallback bool) string {
	if len(ev.Mentions) > 0 {
		if id := s.lookupAndLink(ctx, ev.Mentions[0], ev.GroupID); id != "" {
			return id
		}
	}
	if len(arg) > literalIDMinLen && isDigits(arg) {
		return arg
	}
	if fallback {
		return s.lookupAndLink(ctx, ev.UserID, ev.GroupID)
	}
	return ""
}

func (s *Service) lookupAndLink(ctx context.Context, userID, groupID string) string {
	id, ok := s.bindings.Lookup(userID)
	if !ok {
		return ""
	}
	if groupID != "" {
		s.link(ctx, userID, groupID)
	}
	return id
}

// link updates the group index; save failures are already logged by the registry.
func (s *Service) link(ctx context.Context, userID, groupID string) {
	if _, err := s.bindings.Link(ctx, userID, groupID); err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("group link not persisted", slog.String("user", userID), slog.String("group", groupID), slog.Any("err", err))
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (s *Service) bind(ctx context.Context, ev Event, sink Sink) {
	res, err := s.bindings.Bind(ctx, ev.UserID, ev.GroupID, ev.Arg)
	switch {
	case errors.Is(err, binding.ErrInvalidSteamID):
		s.text(ctx, sink, msgBindInvalid)
		return
	case errors.Is(err, binding.ErrNotBound):
		s.text(ctx, sink, msgBindMissing)
		return
	case err != nil:
		// kept in memory; the registry logged the save failure
		telemetry.LoggerWithCorr(ctx).Warn("binding not persisted", slog.String("user", ev.UserID), slog.Any("err", err))
	}
	if res.Created {
		s.text(ctx, sink, fmt.Sprintf(msgBindOK, res.SteamID))
		return
	}
	s.text(ctx, sink, msgBindSynced)
}
