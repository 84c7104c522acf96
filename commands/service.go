// Package commands implements the Steam chat commands: each one resolves a
// chat identity to a Steam ID, combines several Steam Web API calls and
// replies with text or a rendered image.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/render"
	"github.com/onnwee/steam-chat-bot/steamapi"
	"github.com/onnwee/steam-chat-bot/telemetry"
)

// Command names as typed in chat.
const (
	CmdBind        = "绑定steam"
	CmdActivity    = "steam动态"
	CmdLibrary     = "steam游戏库"
	CmdAchievement = "steam成就"
	CmdCompare     = "steam对比"
	CmdRecommend   = "steam推荐"
	CmdNetwork     = "steam联动"
	CmdRank        = "steam排行"
)

// Names lists every command in help order.
func Names() []string {
	return []string{CmdBind, CmdActivity, CmdLibrary, CmdAchievement, CmdCompare, CmdRecommend, CmdNetwork, CmdRank}
}

// SteamAPI is the subset of *steamapi.Client the commands use.
type SteamAPI interface {
	HasKey() bool
	GetPlayerSummary(ctx context.Context, steamID string, forceRefresh bool) *steamapi.PlayerSummary
	GetPlayerSummaries(ctx context.Context, steamIDs []string, forceRefresh bool) []steamapi.PlayerSummary
	GetOwnedGames(ctx context.Context, steamID string) []steamapi.Game
	GetRecentlyPlayedGames(ctx context.Context, steamID string) []steamapi.Game
	GetUserStatsForGame(ctx context.Context, steamID string, appID int) *steamapi.UserStats
	GetSchemaForGame(ctx context.Context, appID int) *steamapi.GameSchema
	GetPlayerBans(ctx context.Context, steamIDs ...string) []steamapi.PlayerBan
	GetFriendList(ctx context.Context, steamID string) []string
}

// CoverResolver resolves artwork; *cover.Resolver satisfies it.
type CoverResolver interface {
	Resolve(ctx context.Context, appID int, variant cover.Variant) string
	ResolveMany(ctx context.Context, appIDs []int, variant cover.Variant) map[int]string
}

// Settings are the tunables read from configuration.
type Settings struct {
	ImageQuality         int
	RecommendSourceLimit int
	RecommendResultLimit int
}

func (s Settings) normalized() Settings {
	if s.ImageQuality == 0 {
		s.ImageQuality = 90
	}
	s.ImageQuality = render.ClampQuality(s.ImageQuality)
	if s.RecommendSourceLimit == 0 {
		s.RecommendSourceLimit = 40
	}
	s.RecommendSourceLimit = max(10, s.RecommendSourceLimit)
	if s.RecommendResultLimit == 0 {
		s.RecommendResultLimit = 6
	}
	s.RecommendResultLimit = max(3, s.RecommendResultLimit)
	return s
}

// Event is one incoming command invocation.
type Event struct {
	UserID   string
	UserName string
	GroupID  string   // empty outside a group
	Mentions []string // mentioned user ids, in message order
	Command  string
	Arg      string
}

// Reply is either text or an image.
type Reply struct {
	Text  string
	Image *render.Result
}

// Sink receives replies in order.
type Sink interface {
	Send(ctx context.Context, r Reply)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Reply)

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, r Reply) { f(ctx, r) }

// Service runs commands against injected collaborators.
type Service struct {
	steam    SteamAPI
	bindings *binding.Registry
	covers   CoverResolver
	renderer render.Renderer
	settings Settings

	handlers map[string]func(context.Context, Event, Sink)
}

// New wires a Service.
func New(steam SteamAPI, bindings *binding.Registry, covers CoverResolver, renderer render.Renderer, settings Settings) *Service {
	s := &Service{
		steam:    steam,
		bindings: bindings,
		covers:   covers,
		renderer: renderer,
		settings: settings.normalized(),
	}
	s.handlers = map[string]func(context.Context, Event, Sink){
		CmdBind:        s.bind,
		CmdActivity:    s.activity,
		CmdLibrary:     s.library,
		CmdAchievement: s.achievement,
		CmdCompare:     s.compare,
		CmdRecommend:   s.recommend,
		CmdNetwork:     s.network,
		CmdRank:        s.rank,
	}
	return s
}

// Handle runs ev.Command and reports whether it is a known command. Panics
// inside a command are recovered and logged.
func (s *Service) Handle(ctx context.Context, ev Event, sink Sink) bool {
	h, ok := s.handlers[ev.Command]
	if !ok {
		return false
	}
	ctx, span := telemetry.StartSpan(ctx, "commands", ev.Command, telemetry.CommandAttr(ev.Command))
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "commands"), slog.String("command", ev.Command))

	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			err := fmt.Errorf("panic: %v", r)
			telemetry.RecordError(span, err)
			log.Error("command panicked", slog.Any("err", err), slog.String("stack", string(debug.Stack())))
		}
		telemetry.ObserveCommand(ev.Command, outcome, time.Since(start))
	}()

	log.Debug("command received", slog.String("user", ev.UserID), slog.String("group", ev.GroupID), slog.String("arg", ev.Arg))
	h(ctx, ev, sink)
	telemetry.SetSpanSuccess(span)
	return true
}

func (s *Service) text(ctx context.Context, sink Sink, msg string) {
	sink.Send(ctx, Reply{Text: msg})
}

// image renders a template and sends the result, or the failure text.
func (s *Service) image(ctx context.Context, sink Sink, template string, width int, data any) {
	res, err := s.renderer.Render(ctx, render.Request{
		Template: template,
		Data:     data,
		Options:  render.DefaultOptions(width, s.settings.ImageQuality),
	})
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Error("render failed", slog.String("template", template), slog.Any("err", err))
		s.text(ctx, sink, render.FailureText)
		return
	}
	sink.Send(ctx, Reply{Image: res})
}

// requireKey sends the configuration hint and reports false when no API key is set.
func (s *Service) requireKey(ctx context.Context, sink Sink) bool {
	if s.steam.HasKey() {
		return true
	}
	s.text(ctx, sink, msgNoAPIKey)
	return false
}
