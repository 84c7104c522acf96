package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

const (
	achievementTemplate = "achievement"
	achievementWidth    = 700

	achievementUnlockedShown = 6
	achievementShown         = 8
)

// AchievementView is one achievement tile.
type AchievementView struct {
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Desc       string `json:"desc"`
	Unlocked   bool   `json:"unlocked"`
	UnlockTime int64  `json:"unlocktime,omitempty"`
}

// AchievementPayload feeds the achievement template.
type AchievementPayload struct {
	Game         GameView          `json:"game"`
	Unlocked     int               `json:"unlocked"`
	Total        int               `json:"total"`
	Rate         string            `json:"rate"`
	Achievements []AchievementView `json:"achievements"`
	PlayerName   string            `json:"player_name"`
	GameCover    string            `json:"game_cover"`
}

func (s *Service) achievement(ctx context.Context, ev Event, sink Sink) {
	query := strings.TrimSpace(ev.Arg)
	if query == "" {
		s.text(ctx, sink, msgAchievementUsage)
		return
	}
	if !s.requireKey(ctx, sink) {
		return
	}
	// always the sender's own library
	steamID := s.lookupAndLink(ctx, ev.UserID, ev.GroupID)
	if steamID == "" {
		s.text(ctx, sink, msgAchievementUnbound)
		return
	}

	owned := s.steam.GetOwnedGames(ctx, steamID)
	names := make([]string, len(owned))
	for i, g := range owned {
		names[i] = g.Name
	}
	m := matchGame(query, names)
	if m.index < 0 {
		if len(m.suggestions) == 0 {
			s.text(ctx, sink, fmt.Sprintf(msgAchievementNoGame, query))
			return
		}
		var b strings.Builder
		b.WriteString(msgAchievementSuggest)
		for i, name := range m.suggestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		}
		b.WriteString(msgAchievementRetry)
		s.text(ctx, sink, b.String())
		return
	}
	game := owned[m.index]

	schema := s.steam.GetSchemaForGame(ctx, game.AppID)
	declared := schema.Achievements()
	if len(declared) == 0 {
		s.text(ctx, sink, fmt.Sprintf(msgAchievementNone, game.Name))
		return
	}
	stats := s.steam.GetUserStatsForGame(ctx, steamID, game.AppID)

	payload := buildAchievementPayload(game, declared, stats)
	payload.PlayerName = ev.UserName
	payload.GameCover = s.covers.Resolve(ctx, game.AppID, cover.Hero)
	s.image(ctx, sink, achievementTemplate, achievementWidth, payload)
}

// buildAchievementPayload cross-references declared achievements with the
// user's unlock records by API name.
func buildAchievementPayload(game steamapi.Game, declared []steamapi.SchemaAchievement, stats *steamapi.UserStats) *AchievementPayload {
	records := map[string]steamapi.UserAchievement{}
	if stats != nil {
		for _, a := range stats.Achievements {
			records[a.Name] = a
		}
	}
	unlockedCount := 0
	for _, a := range records {
		if a.Unlocked() {
			unlockedCount++
		}
	}

	var unlocked, locked []AchievementView
	for _, d := range declared {
		v := AchievementView{Name: d.DisplayName, Icon: d.Icon, Desc: d.Description}
		if v.Name == "" {
			v.Name = d.Name
		}
		if rec, ok := records[d.Name]; ok && rec.Unlocked() {
			v.Unlocked = true
			v.UnlockTime = rec.UnlockTime
			unlocked = append(unlocked, v)
			continue
		}
		locked = append(locked, v)
	}
	slices.SortStableFunc(unlocked, func(a, b AchievementView) int {
		switch {
		case a.UnlockTime > b.UnlockTime:
			return -1
		case a.UnlockTime < b.UnlockTime:
			return 1
		}
		return 0
	})

	shown := unlocked[:min(len(unlocked), achievementUnlockedShown)]
	shown = append(slices.Clip(shown), locked[:min(len(locked), achievementShown-len(shown))]...)

	rate := 0.0
	if len(declared) > 0 {
		rate = float64(unlockedCount) / float64(len(declared)) * 100
	}
	view := newGameView(game)
	view.PlaytimeForeverFormatted = FormatPlaytime(game.PlaytimeForever)
	return &AchievementPayload{
		Game:         view,
		Unlocked:     unlockedCount,
		Total:        len(declared),
		Rate:         fmt.Sprintf("%.1f", rate),
		Achievements: shown,
	}
}
