package commands

import (
	"context"

	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

// GameView is a game record decorated for a template.
type GameView struct {
	AppID                    int    `json:"appid"`
	Name                     string `json:"name"`
	PlaytimeForever          int    `json:"playtime_forever"`
	Playtime2Weeks           int    `json:"playtime_2weeks,omitempty"`
	ImgIconURL               string `json:"img_icon_url,omitempty"`
	CoverURI                 string `json:"cover_uri,omitempty"`
	PlaytimeForeverFormatted string `json:"playtime_forever_formatted,omitempty"`
	Playtime2WeeksFormatted  string `json:"playtime_2weeks_formatted,omitempty"`
	GridClass                string `json:"grid_class,omitempty"`
}

func newGameView(g steamapi.Game) GameView {
	return GameView{
		AppID:           g.AppID,
		Name:            g.Name,
		PlaytimeForever: g.PlaytimeForever,
		Playtime2Weeks:  g.Playtime2Weeks,
		ImgIconURL:      g.ImgIconURL,
	}
}

func newGameViews(games []steamapi.Game) []GameView {
	out := make([]GameView, len(games))
	for i, g := range games {
		out[i] = newGameView(g)
	}
	return out
}

// decorateCovers fills CoverURI for every view in parallel. Failed lookups
// leave the field empty.
func (s *Service) decorateCovers(ctx context.Context, views []GameView, variant cover.Variant) {
	if len(views) == 0 {
		return
	}
	ids := make([]int, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.AppID)
	}
	covers := s.covers.ResolveMany(ctx, ids, variant)
	for i := range views {
		if uri, ok := covers[views[i].AppID]; ok {
			views[i].CoverURI = uri
		}
	}
}

// gridClass is the mosaic tile for a library rank.
func gridClass(rank int) string {
	switch {
	case rank == 0:
		return "span-4x4"
	case rank < 5:
		return "span-2x2"
	case rank < 15:
		if rank%2 == 0 {
			return "span-2x1"
		}
		return "span-1x2"
	default:
		return "span-1x1"
	}
}
