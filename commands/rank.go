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
	rankTemplate = "group_rank"
	rankWidth    = 800
	rankRows     = 10
	rankTopGames = 5

	sortByCount = "count"
	sortByTime  = "time"
)

var rankDimensions = map[string]string{
	"游戏数": sortByCount,
	"数量":  sortByCount,
	"时长":  sortByTime,
	"时间":  sortByTime,
	"肝度":  sortByTime,
}

// rankDimension maps a typed dimension to a sort key; unknown means count.
func rankDimension(arg string) string {
	if d, ok := rankDimensions[strings.TrimSpace(arg)]; ok {
		return d
	}
	return sortByCount
}

// RankRow is one member of the ranking.
type RankRow struct {
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Avatar      string     `json:"avatar"`
	Count       int        `json:"count"`
	TimeMinutes int        `json:"time_minutes"`
	TimeStr     string     `json:"time_str"`
	TopGames    []GameView `json:"top_games"`
}

// RankPayload feeds the group_rank template.
type RankPayload struct {
	Title  string    `json:"title"`
	SortBy string    `json:"sort_by"`
	Ranks  []RankRow `json:"ranks"`
}

// sortRanks orders rows descending by the dimension; ties keep input order.
func sortRanks(rows []RankRow, sortBy string) {
	key := func(r RankRow) int { return r.Count }
	if sortBy == sortByTime {
		key = func(r RankRow) int { return r.TimeMinutes }
	}
	slices.SortStableFunc(rows, func(a, b RankRow) int { return key(b) - key(a) })
}

type memberData struct {
	games   []steamapi.Game
	summary *steamapi.PlayerSummary
}

func (s *Service) rank(ctx context.Context, ev Event, sink Sink) {
	if ev.GroupID == "" {
		s.text(ctx, sink, msgGroupOnly)
		return
	}
	s.link(ctx, ev.UserID, ev.GroupID)
	if !s.requireKey(ctx, sink) {
		return
	}

	sortBy := rankDimension(ev.Arg)
	group := s.bindings.Group(ev.GroupID)
	if len(group) == 0 {
		s.text(ctx, sink, msgRankNoGroup)
		return
	}
	title := titleRankCount
	if sortBy == sortByTime {
		title = titleRankTime
	}
	s.text(ctx, sink, fmt.Sprintf(msgRankProgress, title))

	users := sortedMembers(group)
	results := settle(ctx, len(users), func(ctx context.Context, i int) (memberData, error) {
		id := group[users[i]]
		return memberData{
			games:   s.steam.GetOwnedGames(ctx, id),
			summary: s.steam.GetPlayerSummary(ctx, id, false),
		}, nil
	})

	rows := make([]RankRow, 0, len(users))
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		rows = append(rows, buildRankRow(users[i], r.Value))
	}
	if len(rows) == 0 {
		s.text(ctx, sink, msgRankNoData)
		return
	}
	sortRanks(rows, sortBy)
	rows = rows[:min(len(rows), rankRows)]
	for i := range rows {
		s.decorateCovers(ctx, rows[i].TopGames, cover.Poster)
	}

	s.image(ctx, sink, rankTemplate, rankWidth, &RankPayload{Title: title, SortBy: sortBy, Ranks: rows})
}

func buildRankRow(userID string, d memberData) RankRow {
	row := RankRow{
		UserID: userID,
		Name:   "User " + userID,
		Count:  len(d.games),
	}
	if d.summary != nil {
		row.Avatar = staticAvatar(d.summary)
		if d.summary.PersonaName != "" {
			row.Name = d.summary.PersonaName
		}
	}
	row.TimeMinutes = totalPlaytime(d.games)
	row.TimeStr = FormatPlaytime(row.TimeMinutes)
	row.TopGames = newGameViews(d.games[:min(len(d.games), rankTopGames)])
	for i := range row.TopGames {
		row.TopGames[i].PlaytimeForeverFormatted = FormatPlaytime(row.TopGames[i].PlaytimeForever)
	}
	return row
}
