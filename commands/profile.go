package commands

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

// Profile modes.
const (
	modeSummary = "summary"
	modeLibrary = "library"
)

const (
	profileTemplate = "profile"
	profileWidth    = 880
	mosaicLimit     = 100
)

// ProfilePayload feeds the profile template.
type ProfilePayload struct {
	Player        *steamapi.PlayerSummary `json:"player"`
	OwnedGames    []GameView              `json:"owned_games"`
	RecentGames   []GameView              `json:"recent_games"`
	TotalGames    int                     `json:"total_games"`
	TotalPlaytime string                  `json:"total_playtime"`
	IsPrivate     bool                    `json:"is_private"`
	Mode          string                  `json:"mode"`
	PlayingGame   *PlayingGame            `json:"playing_game"`
	HeroCover     string                  `json:"hero_cover"`
	BanInfo       *steamapi.PlayerBan     `json:"ban_info"`
}

// PlayingGame is the game currently running on the profile.
type PlayingGame struct {
	Name     string `json:"name"`
	AppID    string `json:"appid"`
	CoverURI string `json:"cover_uri"`
}

func (s *Service) activity(ctx context.Context, ev Event, sink Sink) {
	s.profile(ctx, ev, sink, modeSummary)
}

func (s *Service) library(ctx context.Context, ev Event, sink Sink) {
	s.profile(ctx, ev, sink, modeLibrary)
}

func (s *Service) profile(ctx context.Context, ev Event, sink Sink, mode string) {
	if !s.requireKey(ctx, sink) {
		return
	}
	steamID := s.resolveTarget(ctx, ev, ev.Arg, true)
	if steamID == "" {
		s.text(ctx, sink, msgProfileUnset)
		return
	}
	payload, ok := s.buildProfile(ctx, steamID, mode)
	if !ok {
		s.text(ctx, sink, msgUserNotFound)
		return
	}
	s.image(ctx, sink, profileTemplate, profileWidth, payload)
}

// buildProfile assembles the profile payload; false means the account was not found.
func (s *Service) buildProfile(ctx context.Context, steamID, mode string) (*ProfilePayload, bool) {
	// live "currently playing" state matters only in the activity view
	summary := s.steam.GetPlayerSummary(ctx, steamID, mode == modeSummary)
	if summary == nil {
		return nil, false
	}
	staticAvatar(summary)

	p := &ProfilePayload{
		Player:    summary,
		IsPrivate: summary.IsPrivate(),
		Mode:      mode,
		HeroCover: summary.AvatarFull,
	}

	var owned, recent []steamapi.Game
	var bans []steamapi.PlayerBan
	g, gctx := errgroup.WithContext(ctx)
	if !p.IsPrivate {
		g.Go(func() error { owned = s.steam.GetOwnedGames(gctx, steamID); return nil })
		g.Go(func() error { recent = s.steam.GetRecentlyPlayedGames(gctx, steamID); return nil })
	}
	g.Go(func() error { bans = s.steam.GetPlayerBans(gctx, steamID); return nil })
	_ = g.Wait()

	// Both views list at most mosaicLimit games; TotalGames keeps the full count.
	shown := newGameViews(owned[:min(len(owned), mosaicLimit)])
	recentViews := newGameViews(recent)

	s.decorateCovers(ctx, shown, cover.Poster)
	s.decorateCovers(ctx, recentViews, cover.Poster)
	if len(owned) > 0 {
		if hero := s.covers.Resolve(ctx, owned[0].AppID, cover.Hero); hero != "" {
			p.HeroCover = hero
		}
	}

	for i := range shown {
		shown[i].PlaytimeForeverFormatted = FormatPlaytime(shown[i].PlaytimeForever)
	}
	for i := range recentViews {
		recentViews[i].Playtime2WeeksFormatted = FormatPlaytime(recentViews[i].Playtime2Weeks)
	}
	if mode == modeLibrary {
		for i := range shown {
			shown[i].GridClass = gridClass(i)
		}
	}

	if summary.GameExtraInfo != "" {
		pg := &PlayingGame{Name: summary.GameExtraInfo, AppID: summary.GameID}
		appID, _ := strconv.Atoi(summary.GameID)
		pg.CoverURI = s.covers.Resolve(ctx, appID, cover.Hero)
		if pg.CoverURI == "" {
			pg.CoverURI = p.HeroCover
		}
		p.PlayingGame = pg
	}
	if len(bans) > 0 {
		p.BanInfo = &bans[0]
	}

	p.OwnedGames = shown
	p.RecentGames = recentViews
	p.TotalGames = len(owned)
	p.TotalPlaytime = FormatPlaytime(totalPlaytime(owned))
	return p, true
}
