package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const networkEdgeCap = 10

// sortedMembers returns the group's user ids in a stable order.
func sortedMembers(group map[string]string) []string {
	return slices.Sorted(maps.Keys(group))
}

// memberSteamIDs returns the distinct Steam IDs of a group ordered by user id.
func memberSteamIDs(group map[string]string) []string {
	var ids []string
	for _, user := range sortedMembers(group) {
		if id := group[user]; id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// friendEdge is an unordered pair stored with a < b.
type friendEdge struct{ a, b string }

// friendEdges records a pair when either member's list contains the other;
// reciprocity is not required. Edges are returned in discovery order.
func friendEdges(members []string, friends [][]string) []friendEdge {
	inGroup := make(map[string]bool, len(members))
	for _, m := range members {
		inGroup[m] = true
	}
	seen := map[friendEdge]bool{}
	var edges []friendEdge
	for i, sid := range members {
		for _, fid := range friends[i] {
			if fid == sid || !inGroup[fid] {
				continue
			}
			e := friendEdge{a: min(sid, fid), b: max(sid, fid)}
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}

type playingGroup struct {
	name    string
	players []string
}

func (s *Service) network(ctx context.Context, ev Event, sink Sink) {
	if ev.GroupID == "" {
		s.text(ctx, sink, msgGroupOnly)
		return
	}
	if !s.requireKey(ctx, sink) {
		return
	}
	group := s.bindings.Group(ev.GroupID)
	if len(group) == 0 {
		s.text(ctx, sink, msgNetworkNoGroup)
		return
	}
	members := memberSteamIDs(group)
	if len(members) < 2 {
		s.text(ctx, sink, msgNetworkTooFew)
		return
	}

	friendResults := settle(ctx, len(members), func(ctx context.Context, i int) ([]string, error) {
		return s.steam.GetFriendList(ctx, members[i]), nil
	})
	// who is playing what right now
	summaries := s.steam.GetPlayerSummaries(ctx, members, true)

	names := make(map[string]string, len(summaries))
	bySID := make(map[string]int, len(summaries))
	for i, p := range summaries {
		names[p.SteamID] = p.PersonaName
		bySID[p.SteamID] = i
	}
	var playing []*playingGroup
	byGame := map[string]*playingGroup{}
	for _, sid := range members {
		idx, ok := bySID[sid]
		if !ok || !summaries[idx].IsPlaying() {
			continue
		}
		p := summaries[idx]
		pg, ok := byGame[p.GameID]
		if !ok {
			pg = &playingGroup{name: p.GameExtraInfo}
			byGame[p.GameID] = pg
			playing = append(playing, pg)
		}
		pg.players = append(pg.players, sid)
	}
	display := func(sid string) string {
		if n := names[sid]; n != "" {
			return n
		}
		return sid
	}

	friends := make([][]string, len(members))
	for i, r := range friendResults {
		if r.Err == nil {
			friends[i] = r.Value
		}
	}
	edges := friendEdges(members, friends)

	lines := []string{"👥 群内 Steam 联动概览"}
	if len(edges) > 0 {
		lines = append(lines, fmt.Sprintf("- 发现 %d 对群友互为 Steam 好友：", len(edges)))
		for i, e := range edges[:min(len(edges), networkEdgeCap)] {
			lines = append(lines, fmt.Sprintf("  %d. %s ↔ %s", i+1, display(e.a), display(e.b)))
		}
		if len(edges) > networkEdgeCap {
			lines = append(lines, fmt.Sprintf("  … 其余 %d 对略", len(edges)-networkEdgeCap))
		}
	} else {
		lines = append(lines, "- 暂未发现群友之间的 Steam 好友关系。")
	}

	var active []*playingGroup
	for _, pg := range playing {
		if len(pg.players) > 1 {
			active = append(active, pg)
		}
	}
	if len(active) > 0 {
		lines = append(lines, "", "🔥 正在一起玩的游戏：")
		for _, pg := range active {
			players := make([]string, len(pg.players))
			for i, sid := range pg.players {
				players[i] = display(sid)
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", pg.name, strings.Join(players, ", ")))
		}
	} else {
		lines = append(lines, "", "🔥 暂时没有群友在同一款游戏里。")
	}
	s.text(ctx, sink, strings.Join(lines, "\n"))
}
