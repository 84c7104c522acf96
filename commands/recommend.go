package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

const (
	recommendTemplate = "recommend"
	recommendWidth    = 800
	ownerAvatarCap    = 6
)

// RecommendTarget is the player the recommendations are for.
type RecommendTarget struct {
	PersonaName string `json:"personaname"`
	Avatar      string `json:"avatar"`
}

// Recommendation is one recommended game.
type Recommendation struct {
	AppID        int      `json:"appid"`
	Name         string   `json:"name"`
	Score        int      `json:"score"`
	Playtime     string   `json:"playtime"`
	Owners       int      `json:"owners"`
	OwnerAvatars []string `json:"owner_avatars"`
	CoverURI     string   `json:"cover_uri,omitempty"`
}

// RecommendPayload feeds the recommend template.
type RecommendPayload struct {
	Target          RecommendTarget  `json:"target"`
	Recommendations []Recommendation `json:"recommendations"`
}

// candidate accumulates one appid across member libraries.
type candidate struct {
	appID  int
	name   string
	score  int
	owners []string // steam ids in first-seen order
}

// scoreCandidates sums lifetime minutes per appid over each member's first
// sourceLimit games, skipping appids the target owns and unplayed entries.
// The result is sorted by (score, owner count) descending; ties keep
// first-seen order.
func scoreCandidates(owned map[int]bool, members []string, libraries [][]steamapi.Game, sourceLimit int) []*candidate {
	byApp := map[int]*candidate{}
	var order []*candidate
	for i, games := range libraries {
		member := members[i]
		for _, g := range games[:min(len(games), sourceLimit)] {
			if g.AppID == 0 || owned[g.AppID] || g.PlaytimeForever <= 0 {
				continue
			}
			c, ok := byApp[g.AppID]
			if !ok {
				name := g.Name
				if name == "" {
					name = fmt.Sprintf("App %d", g.AppID)
				}
				c = &candidate{appID: g.AppID, name: name}
				byApp[g.AppID] = c
				order = append(order, c)
			}
			c.score += g.PlaytimeForever
			if !slices.Contains(c.owners, member) {
				c.owners = append(c.owners, member)
			}
		}
	}
	slices.SortStableFunc(order, func(a, b *candidate) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return len(b.owners) - len(a.owners)
	})
	return order
}

func (s *Service) recommend(ctx context.Context, ev Event, sink Sink) {
	if ev.GroupID == "" {
		s.text(ctx, sink, msgGroupOnly)
		return
	}
	if !s.requireKey(ctx, sink) {
		return
	}
	group := s.bindings.Group(ev.GroupID)
	if len(group) == 0 {
		s.text(ctx, sink, msgRecommendNoGroup)
		return
	}
	targetID := s.resolveTarget(ctx, ev, ev.Arg, true)
	if targetID == "" {
		s.text(ctx, sink, msgRecommendNoTarget)
		return
	}
	targetGames := s.steam.GetOwnedGames(ctx, targetID)
	if len(targetGames) == 0 {
		s.text(ctx, sink, msgRecommendNoLibrary)
		return
	}
	owned := make(map[int]bool, len(targetGames))
	for _, g := range targetGames {
		owned[g.AppID] = true
	}

	var others []string
	for _, id := range memberSteamIDs(group) {
		if id != targetID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		s.text(ctx, sink, msgRecommendNoOthers)
		return
	}

	results := settle(ctx, len(others), func(ctx context.Context, i int) ([]steamapi.Game, error) {
		return s.steam.GetOwnedGames(ctx, others[i]), nil
	})
	libraries := make([][]steamapi.Game, len(results))
	for i, r := range results {
		if r.Err == nil {
			libraries[i] = r.Value
		}
	}

	ranked := scoreCandidates(owned, others, libraries, s.settings.RecommendSourceLimit)
	if len(ranked) == 0 {
		s.text(ctx, sink, msgRecommendNothing)
		return
	}
	top := ranked[:min(len(ranked), s.settings.RecommendResultLimit)]

	ids := []string{targetID}
	for _, c := range top {
		for _, o := range c.owners[:min(len(c.owners), ownerAvatarCap)] {
			if !slices.Contains(ids, o) {
				ids = append(ids, o)
			}
		}
	}
	avatars := s.avatarsByID(ctx, ids)

	views := make([]GameView, len(top))
	for i, c := range top {
		views[i] = GameView{AppID: c.appID, Name: c.name}
	}
	s.decorateCovers(ctx, views, cover.Poster)

	payload := &RecommendPayload{
		Target:          RecommendTarget{PersonaName: ev.UserName, Avatar: avatars[targetID].avatar},
		Recommendations: make([]Recommendation, 0, len(top)),
	}
	if n := avatars[targetID].name; n != "" {
		payload.Target.PersonaName = n
	}
	for i, c := range top {
		rec := Recommendation{
			AppID:        c.appID,
			Name:         c.name,
			Score:        c.score,
			Playtime:     fmt.Sprintf("%.1f", float64(c.score)/60),
			Owners:       len(c.owners),
			OwnerAvatars: []string{},
			CoverURI:     views[i].CoverURI,
		}
		for _, o := range c.owners[:min(len(c.owners), ownerAvatarCap)] {
			if a := avatars[o].avatar; a != "" {
				rec.OwnerAvatars = append(rec.OwnerAvatars, a)
			}
		}
		payload.Recommendations = append(payload.Recommendations, rec)
	}
	s.image(ctx, sink, recommendTemplate, recommendWidth, payload)
}

type persona struct {
	name   string
	avatar string
}

// avatarsByID fetches summaries in one batch and returns static avatars.
func (s *Service) avatarsByID(ctx context.Context, ids []string) map[string]persona {
	out := make(map[string]persona, len(ids))
	for _, p := range s.steam.GetPlayerSummaries(ctx, ids, false) {
		out[p.SteamID] = persona{name: p.PersonaName, avatar: staticAvatar(&p)}
	}
	return out
}
