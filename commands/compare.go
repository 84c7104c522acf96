package commands

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

const (
	compareTemplate = "compare"
	compareWidth    = 800
	compareListCap  = 12

	// achievementSample bounds how many owned games feed the achievement
	// estimate per player.
	achievementSample = 12
)

// ComparePlayer is one side of the compare header.
type ComparePlayer struct {
	PersonaName string `json:"personaname"`
	AvatarFull  string `json:"avatarfull"`
	Count       int    `json:"count"`
}

// ComparePayload feeds the compare template.
type ComparePayload struct {
	Me          ComparePlayer `json:"me"`
	Target      ComparePlayer `json:"target"`
	CommonGames []GameView    `json:"common_games"`
	CommonCount int           `json:"common_count"`
	OnlyMe      []GameView    `json:"only_me"`
	OnlyTarget  []GameView    `json:"only_target"`
	Metrics     []Metric      `json:"metrics"`
}

// libraryDiff splits two libraries by appid. common keeps mine's records and
// order; each only-list keeps its owner's order.
type libraryDiff struct {
	common, onlyMine, onlyTheirs []steamapi.Game
}

func diffLibraries(mine, theirs []steamapi.Game) libraryDiff {
	inMine := make(map[int]bool, len(mine))
	for _, g := range mine {
		inMine[g.AppID] = true
	}
	inTheirs := make(map[int]bool, len(theirs))
	for _, g := range theirs {
		inTheirs[g.AppID] = true
	}
	var d libraryDiff
	for _, g := range mine {
		if inTheirs[g.AppID] {
			d.common = append(d.common, g)
		} else {
			d.onlyMine = append(d.onlyMine, g)
		}
	}
	for _, g := range theirs {
		if !inMine[g.AppID] {
			d.onlyTheirs = append(d.onlyTheirs, g)
		}
	}
	return d
}

// achievementTally is a sampled unlock estimate.
type achievementTally struct {
	Unlocked int
	Total    int
}

func (t achievementTally) display() string {
	if t.Total == 0 {
		return fmt.Sprintf("%d/-", t.Unlocked)
	}
	return fmt.Sprintf("%d/%d", t.Unlocked, t.Total)
}

// sampleAchievements estimates progress from the first achievementSample
// games. Games without both stats and schema are left out.
func (s *Service) sampleAchievements(ctx context.Context, steamID string, games []steamapi.Game) achievementTally {
	sample := games[:min(len(games), achievementSample)]
	results := settle(ctx, len(sample), func(ctx context.Context, i int) (achievementTally, error) {
		appID := sample[i].AppID
		if appID == 0 {
			return achievementTally{}, nil
		}
		stats := s.steam.GetUserStatsForGame(ctx, steamID, appID)
		if stats == nil {
			return achievementTally{}, nil
		}
		schema := s.steam.GetSchemaForGame(ctx, appID)
		if schema == nil {
			return achievementTally{}, nil
		}
		return achievementTally{Unlocked: stats.UnlockedCount(), Total: len(schema.Achievements())}, nil
	})
	var t achievementTally
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		t.Unlocked += r.Value.Unlocked
		t.Total += r.Value.Total
	}
	return t
}

func (s *Service) compare(ctx context.Context, ev Event, sink Sink) {
	if !s.requireKey(ctx, sink) {
		return
	}
	// the sender is never taken from mentions; those name the target
	myID, _ := s.bindings.Lookup(ev.UserID)
	targetID := s.resolveTarget(ctx, ev, ev.Arg, false)
	switch {
	case myID == "":
		s.text(ctx, sink, msgCompareUnbound)
		return
	case targetID == "":
		s.text(ctx, sink, msgCompareNoTarget)
		return
	case myID == targetID:
		s.text(ctx, sink, msgCompareSelf)
		return
	}

	var mine, theirs []steamapi.Game
	var mySummary, theirSummary *steamapi.PlayerSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { mine = s.steam.GetOwnedGames(gctx, myID); return nil })
	g.Go(func() error { theirs = s.steam.GetOwnedGames(gctx, targetID); return nil })
	g.Go(func() error { mySummary = s.steam.GetPlayerSummary(gctx, myID, false); return nil })
	g.Go(func() error { theirSummary = s.steam.GetPlayerSummary(gctx, targetID, false); return nil })
	_ = g.Wait()

	if len(mine) == 0 || len(theirs) == 0 {
		s.text(ctx, sink, msgCompareNoData)
		return
	}
	d := diffLibraries(mine, theirs)
	if len(d.common) == 0 {
		s.text(ctx, sink, msgCompareNoCommon)
		return
	}

	var myAch, theirAch achievementTally
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error { myAch = s.sampleAchievements(gctx, myID, mine); return nil })
	g.Go(func() error { theirAch = s.sampleAchievements(gctx, targetID, theirs); return nil })
	_ = g.Wait()

	common := newGameViews(d.common[:min(len(d.common), compareListCap)])
	onlyMe := newGameViews(d.onlyMine[:min(len(d.onlyMine), compareListCap)])
	onlyTarget := newGameViews(d.onlyTheirs[:min(len(d.onlyTheirs), compareListCap)])
	s.decorateCovers(ctx, common, cover.Poster)
	s.decorateCovers(ctx, onlyMe, cover.Poster)
	s.decorateCovers(ctx, onlyTarget, cover.Poster)

	myMinutes, theirMinutes := totalPlaytime(mine), totalPlaytime(theirs)
	payload := &ComparePayload{
		Me:          comparePlayer(mySummary, "Player 1", len(mine)),
		Target:      comparePlayer(theirSummary, "Player 2", len(theirs)),
		CommonGames: common,
		CommonCount: len(d.common),
		OnlyMe:      onlyMe,
		OnlyTarget:  onlyTarget,
		Metrics: []Metric{
			buildMetric("游戏数量", len(mine), len(theirs), fmt.Sprint(len(mine)), fmt.Sprint(len(theirs))),
			buildMetric("总时长", myMinutes, theirMinutes, FormatPlaytime(myMinutes), FormatPlaytime(theirMinutes)),
			buildMetric("成就完成数", myAch.Unlocked, theirAch.Unlocked, myAch.display(), theirAch.display()),
		},
	}
	s.image(ctx, sink, compareTemplate, compareWidth, payload)
}

func comparePlayer(p *steamapi.PlayerSummary, fallbackName string, count int) ComparePlayer {
	out := ComparePlayer{PersonaName: fallbackName, Count: count}
	if p == nil {
		return out
	}
	out.AvatarFull = staticAvatar(p)
	if p.PersonaName != "" {
		out.PersonaName = p.PersonaName
	}
	return out
}
