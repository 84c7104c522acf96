package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/render"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

func TestHandleUnknownCommand(t *testing.T) {
	h := newHarness(t, binding.Snapshot{})
	assert.False(t, h.svc.Handle(context.Background(), Event{Command: "nope"}, &recorder{}))
}

func TestHandleRecoversPanics(t *testing.T) {
	h := newHarness(t, binding.Snapshot{})
	sink := SinkFunc(func(ctx context.Context, r Reply) { panic("sink exploded") })
	assert.NotPanics(t, func() {
		h.svc.Handle(context.Background(), Event{Command: CmdBind, UserID: "u1", Arg: "123"}, sink)
	})
}

func TestBindCommand(t *testing.T) {
	h := newHarness(t, binding.Snapshot{})

	rec := h.run(t, Event{Command: CmdBind, UserID: "u1", GroupID: "g1", Arg: "123"})
	assert.Equal(t, []string{msgBindInvalid}, rec.texts())

	rec = h.run(t, Event{Command: CmdBind, UserID: "u1", GroupID: "g1"})
	assert.Equal(t, []string{msgBindMissing}, rec.texts())

	rec = h.run(t, Event{Command: CmdBind, UserID: "u1", GroupID: "g1", Arg: sid1})
	assert.Equal(t, []string{"绑定成功！已关联 Steam ID: " + sid1}, rec.texts())

	rec = h.run(t, Event{Command: CmdBind, UserID: "u1", GroupID: "g2"})
	assert.Equal(t, []string{msgBindSynced}, rec.texts())
	assert.Equal(t, sid1, h.registry.Group("g2")["u1"])
}

func TestResolveTargetOrder(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1, "u2": sid2}})
	ctx := context.Background()

	// mention wins over a literal id
	got := h.svc.resolveTarget(ctx, Event{UserID: "u1", GroupID: "g1", Mentions: []string{"u2"}}, sid3, true)
	assert.Equal(t, sid2, got)
	assert.Equal(t, sid2, h.registry.Group("g1")["u2"], "mentioned user linked into group")

	// unbound mention falls through to the literal id
	got = h.svc.resolveTarget(ctx, Event{UserID: "u1", Mentions: []string{"ghost"}}, sid3, true)
	assert.Equal(t, sid3, got)

	// short numbers are not ids
	got = h.svc.resolveTarget(ctx, Event{UserID: "u1"}, "1234567890", true)
	assert.Equal(t, sid1, got)

	got = h.svc.resolveTarget(ctx, Event{UserID: "u1"}, "", false)
	assert.Empty(t, got)
}

func TestProfileRequiresKey(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})
	h.steam.noKey = true

	rec := h.run(t, Event{Command: CmdActivity, UserID: "u1"})
	assert.Equal(t, []string{msgNoAPIKey}, rec.texts())
}

func TestProfileUnresolvedAndMissing(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})

	rec := h.run(t, Event{Command: CmdActivity, UserID: "stranger"})
	assert.Equal(t, []string{msgProfileUnset}, rec.texts())

	rec = h.run(t, Event{Command: CmdActivity, UserID: "u1"})
	assert.Equal(t, []string{msgUserNotFound}, rec.texts())
}

func TestLibraryProfilePayload(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})
	p := publicSummary(sid1, "alice")
	p.AvatarFull = "https://cdn.test/anim.gif"
	p.AvatarHash = "hash"
	p.GameID = "620"
	p.GameExtraInfo = "Portal 2"
	h.steam.summaries[sid1] = p
	var lib []steamapi.Game
	for i := 0; i < 120; i++ {
		lib = append(lib, game(1000+i, "G", 2000-i))
	}
	h.steam.libraries[sid1] = lib
	h.steam.recent[sid1] = []steamapi.Game{{AppID: 1000, Name: "G", Playtime2Weeks: 30}}
	h.steam.bans[sid1] = steamapi.PlayerBan{SteamID: sid1, VACBanned: true}

	rec := h.run(t, Event{Command: CmdLibrary, UserID: "u1"})
	require.Equal(t, 1, rec.images())

	req := h.renderer.last(t)
	assert.Equal(t, "profile", req.Template)
	assert.Equal(t, render.DefaultOptions(880, 90), req.Options)
	payload := req.Data.(*ProfilePayload)
	assert.Equal(t, "library", payload.Mode)
	assert.Len(t, payload.OwnedGames, 100)
	assert.Equal(t, 120, payload.TotalGames)
	assert.Equal(t, "span-4x4", payload.OwnedGames[0].GridClass)
	assert.Equal(t, "span-2x1", payload.OwnedGames[14].GridClass)
	assert.Equal(t, "span-1x1", payload.OwnedGames[99].GridClass)
	assert.Equal(t, "cover://1000/poster", payload.OwnedGames[0].CoverURI)
	assert.Equal(t, "33h (1.4d)", payload.OwnedGames[0].PlaytimeForeverFormatted)
	assert.Equal(t, "30 分钟", payload.RecentGames[0].Playtime2WeeksFormatted)
	assert.Equal(t, "cover://1000/hero", payload.HeroCover)
	assert.Equal(t, "https://avatars.cloudflare.steamstatic.com/hash_full.jpg", payload.Player.AvatarFull)
	require.NotNil(t, payload.PlayingGame)
	assert.Equal(t, "cover://620/hero", payload.PlayingGame.CoverURI)
	require.NotNil(t, payload.BanInfo)
	assert.True(t, payload.BanInfo.VACBanned)
	assert.Zero(t, h.steam.forced, "library view uses cached summary")
}

func TestActivityForcesRefreshAndHandlesPrivate(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})
	h.steam.summaries[sid1] = steamapi.PlayerSummary{SteamID: sid1, PersonaName: "hidden", CommunityVisibilityState: 1, AvatarFull: "a.jpg"}
	h.steam.libraries[sid1] = []steamapi.Game{game(1, "x", 5)}

	rec := h.run(t, Event{Command: CmdActivity, UserID: "u1"})
	require.Equal(t, 1, rec.images())

	payload := h.renderer.last(t).Data.(*ProfilePayload)
	assert.True(t, payload.IsPrivate)
	assert.Empty(t, payload.OwnedGames)
	assert.Equal(t, "a.jpg", payload.HeroCover)
	assert.Equal(t, 1, h.steam.forced)
	assert.Zero(t, h.steam.count("owned"), "private profiles skip library calls")
}

func TestRenderFailureSendsText(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})
	h.steam.summaries[sid1] = publicSummary(sid1, "alice")
	h.renderer.err = errors.New("boom")

	rec := h.run(t, Event{Command: CmdActivity, UserID: "u1"})
	assert.Equal(t, []string{render.FailureText}, rec.texts())
}

func TestAchievementCommand(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})
	h.steam.libraries[sid1] = []steamapi.Game{game(220, "Half-Life 2", 600), game(620, "Portal 2", 300)}
	var declared []steamapi.SchemaAchievement
	var records []steamapi.UserAchievement
	for i := 0; i < 10; i++ {
		name := string(rune('A' + i))
		declared = append(declared, steamapi.SchemaAchievement{Name: name, DisplayName: "ach " + name})
		if i < 7 {
			records = append(records, steamapi.UserAchievement{Name: name, Achieved: 1, UnlockTime: int64(100 + i)})
		}
	}
	schema := &steamapi.GameSchema{}
	schema.AvailableGameStats.Achievements = declared
	h.steam.schemas[220] = schema
	h.steam.stats[sid1+"_220"] = &steamapi.UserStats{Achievements: records}

	rec := h.run(t, Event{Command: CmdAchievement, UserID: "u1", UserName: "Alice", Arg: "half-life 2"})
	require.Equal(t, 1, rec.images())

	req := h.renderer.last(t)
	assert.Equal(t, "achievement", req.Template)
	assert.Equal(t, 700, req.Options.Width)
	p := req.Data.(*AchievementPayload)
	assert.Equal(t, 220, p.Game.AppID)
	assert.Equal(t, 7, p.Unlocked)
	assert.Equal(t, 10, p.Total)
	assert.Equal(t, "70.0", p.Rate)
	assert.Equal(t, "Alice", p.PlayerName)
	require.Len(t, p.Achievements, 8)
	assert.Equal(t, "ach G", p.Achievements[0].Name, "most recent unlock first")
	assert.True(t, p.Achievements[5].Unlocked)
	assert.False(t, p.Achievements[6].Unlocked)
	assert.Equal(t, "ach H", p.Achievements[6].Name)
}

func TestAchievementCommandMessages(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})
	h.steam.libraries[sid1] = []steamapi.Game{game(220, "Half-Life 2", 600), game(620, "Portal 2", 300)}

	rec := h.run(t, Event{Command: CmdAchievement, UserID: "u1"})
	assert.Equal(t, []string{msgAchievementUsage}, rec.texts())

	rec = h.run(t, Event{Command: CmdAchievement, UserID: "stranger", Arg: "x"})
	assert.Equal(t, []string{msgAchievementUnbound}, rec.texts())

	rec = h.run(t, Event{Command: CmdAchievement, UserID: "u1", Arg: "Portl"})
	require.Len(t, rec.texts(), 1)
	assert.True(t, strings.HasPrefix(rec.texts()[0], msgAchievementSuggest))
	assert.Contains(t, rec.texts()[0], "1. Portal 2")

	rec = h.run(t, Event{Command: CmdAchievement, UserID: "u1", Arg: "zzzz"})
	assert.Equal(t, []string{"在你拥有的游戏中未找到包含“zzzz”的游戏。"}, rec.texts())

	rec = h.run(t, Event{Command: CmdAchievement, UserID: "u1", Arg: "portal"})
	assert.Equal(t, []string{"《Portal 2》似乎没有可查询的 Steam 成就。"}, rec.texts())
}

func TestDiffLibrariesPartition(t *testing.T) {
	mine := []steamapi.Game{game(1, "a", 50), game(2, "b", 40), game(3, "c", 30)}
	theirs := []steamapi.Game{game(4, "d", 90), game(2, "b", 80), game(5, "e", 10)}

	d := diffLibraries(mine, theirs)

	ids := func(gs []steamapi.Game) []int {
		var out []int
		for _, g := range gs {
			out = append(out, g.AppID)
		}
		return out
	}
	assert.Equal(t, []int{2}, ids(d.common))
	assert.Equal(t, 40, d.common[0].PlaytimeForever, "common keeps my record")
	assert.Equal(t, []int{1, 3}, ids(d.onlyMine))
	assert.Equal(t, []int{4, 5}, ids(d.onlyTheirs))
}

func TestCompareRejectsSelf(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1, "u2": sid1}})

	rec := h.run(t, Event{Command: CmdCompare, UserID: "u1", Arg: sid1})
	assert.Equal(t, []string{msgCompareSelf}, rec.texts())

	rec = h.run(t, Event{Command: CmdCompare, UserID: "u1", Mentions: []string{"u2"}})
	assert.Equal(t, []string{msgCompareSelf}, rec.texts(), "self via another binding")
	assert.Zero(t, h.steam.count("owned"))
}

func TestCompareMessages(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})

	rec := h.run(t, Event{Command: CmdCompare, UserID: "stranger", Arg: sid2})
	assert.Equal(t, []string{msgCompareUnbound}, rec.texts())

	rec = h.run(t, Event{Command: CmdCompare, UserID: "u1"})
	assert.Equal(t, []string{msgCompareNoTarget}, rec.texts(), "no fallback to the sender")

	rec = h.run(t, Event{Command: CmdCompare, UserID: "u1", Arg: sid2})
	assert.Equal(t, []string{msgCompareNoData}, rec.texts())

	h.steam.libraries[sid1] = []steamapi.Game{game(1, "a", 5)}
	h.steam.libraries[sid2] = []steamapi.Game{game(2, "b", 5)}
	rec = h.run(t, Event{Command: CmdCompare, UserID: "u1", Arg: sid2})
	assert.Equal(t, []string{msgCompareNoCommon}, rec.texts())
}

func TestCompareCommand(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1, "u2": sid2}})
	h.steam.summaries[sid1] = publicSummary(sid1, "alice")
	h.steam.summaries[sid2] = publicSummary(sid2, "bob")
	h.steam.libraries[sid1] = []steamapi.Game{game(1, "a", 500), game(2, "b", 400)}
	h.steam.libraries[sid2] = []steamapi.Game{game(2, "b", 900), game(3, "c", 10), game(4, "d", 5)}
	schema := &steamapi.GameSchema{}
	schema.AvailableGameStats.Achievements = []steamapi.SchemaAchievement{{Name: "x"}, {Name: "y"}}
	h.steam.schemas[2] = schema
	h.steam.stats[sid1+"_2"] = &steamapi.UserStats{Achievements: []steamapi.UserAchievement{{Name: "x", Achieved: 1}}}

	rec := h.run(t, Event{Command: CmdCompare, UserID: "u1", Mentions: []string{"u2"}})
	require.Equal(t, 1, rec.images())

	req := h.renderer.last(t)
	assert.Equal(t, "compare", req.Template)
	assert.Equal(t, 800, req.Options.Width)
	p := req.Data.(*ComparePayload)
	assert.Equal(t, "alice", p.Me.PersonaName)
	assert.Equal(t, "bob", p.Target.PersonaName)
	assert.Equal(t, 1, p.CommonCount)
	assert.Equal(t, 400, p.CommonGames[0].PlaytimeForever)
	require.Len(t, p.OnlyMe, 1)
	require.Len(t, p.OnlyTarget, 2)
	require.Len(t, p.Metrics, 3)
	assert.Equal(t, "LOSE", p.Metrics[0].Left.Badge)
	assert.Equal(t, "WIN!", p.Metrics[1].Right.Badge)
	assert.Equal(t, "1/2", p.Metrics[2].Left.Value)
	assert.Equal(t, "0/-", p.Metrics[2].Right.Value)
	assert.Equal(t, "WIN!", p.Metrics[2].Left.Badge)
}

func TestSampleAchievementsBounded(t *testing.T) {
	h := newHarness(t, binding.Snapshot{})
	var lib []steamapi.Game
	for i := 1; i <= 30; i++ {
		lib = append(lib, game(i, "g", 100))
	}
	h.svc.sampleAchievements(context.Background(), sid1, lib)
	assert.Equal(t, achievementSample, h.steam.count("stats"))
}

func TestScoreCandidatesNeverRecommendsOwned(t *testing.T) {
	owned := map[int]bool{1: true}
	members := []string{sid2, sid3}
	libs := [][]steamapi.Game{
		{game(1, "owned hit", 100000), game(2, "b", 300), game(3, "c", 0)},
		{game(1, "owned hit", 100000), game(4, "d", 300), game(2, "b", 100)},
	}

	got := scoreCandidates(owned, members, libs, 40)

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].appID)
	assert.Equal(t, 400, got[0].score)
	assert.Equal(t, []string{sid2, sid3}, got[0].owners)
	assert.Equal(t, 4, got[1].appID)
	for _, c := range got {
		assert.NotEqual(t, 1, c.appID)
		assert.NotEqual(t, 3, c.appID, "unplayed games are skipped")
	}
}

func TestScoreCandidatesTieBreaks(t *testing.T) {
	libs := [][]steamapi.Game{
		{game(10, "solo", 200), game(11, "pair", 100), game(12, "first", 50)},
		{game(11, "pair", 100), game(13, "second", 50)},
	}
	got := scoreCandidates(map[int]bool{}, []string{sid2, sid3}, libs, 40)

	var order []int
	for _, c := range got {
		order = append(order, c.appID)
	}
	// 11 and 10 tie on score; 11 has more owners. 12 and 13 tie fully and keep first-seen order.
	assert.Equal(t, []int{11, 10, 12, 13}, order)
}

func TestScoreCandidatesSourceLimit(t *testing.T) {
	libs := [][]steamapi.Game{{game(1, "a", 10), game(2, "b", 10), game(3, "c", 10)}}
	got := scoreCandidates(map[int]bool{}, []string{sid2}, libs, 2)
	assert.Len(t, got, 2)
}

func TestRecommendCommand(t *testing.T) {
	h := newHarness(t, binding.Snapshot{
		Users:  map[string]string{"u1": sid1, "u2": sid2, "u3": sid3},
		Groups: map[string]map[string]string{"g1": {"u1": sid1, "u2": sid2, "u3": sid3}},
	})
	h.steam.summaries[sid1] = publicSummary(sid1, "alice")
	h.steam.summaries[sid2] = publicSummary(sid2, "bob")
	h.steam.summaries[sid3] = publicSummary(sid3, "carol")
	h.steam.libraries[sid1] = []steamapi.Game{game(1, "Owned", 10)}
	h.steam.libraries[sid2] = []steamapi.Game{game(1, "Owned", 99999), game(2, "Two", 120)}
	h.steam.libraries[sid3] = []steamapi.Game{game(2, "Two", 60)}

	rec := h.run(t, Event{Command: CmdRecommend, UserID: "u1", UserName: "Alice", GroupID: "g1"})
	require.Equal(t, 1, rec.images())

	req := h.renderer.last(t)
	assert.Equal(t, "recommend", req.Template)
	p := req.Data.(*RecommendPayload)
	assert.Equal(t, "alice", p.Target.PersonaName)
	require.Len(t, p.Recommendations, 1)
	r := p.Recommendations[0]
	assert.Equal(t, 2, r.AppID)
	assert.Equal(t, 180, r.Score)
	assert.Equal(t, "3.0", r.Playtime)
	assert.Equal(t, 2, r.Owners)
	assert.Len(t, r.OwnerAvatars, 2)
	assert.Equal(t, "cover://2/poster", r.CoverURI)
}

func TestRecommendMessages(t *testing.T) {
	h := newHarness(t, binding.Snapshot{
		Users:  map[string]string{"u1": sid1},
		Groups: map[string]map[string]string{"g1": {"u1": sid1}},
	})

	rec := h.run(t, Event{Command: CmdRecommend, UserID: "u1"})
	assert.Equal(t, []string{msgGroupOnly}, rec.texts())

	rec = h.run(t, Event{Command: CmdRecommend, UserID: "u1", GroupID: "empty"})
	assert.Equal(t, []string{msgRecommendNoGroup}, rec.texts())

	rec = h.run(t, Event{Command: CmdRecommend, UserID: "stranger", GroupID: "g1"})
	assert.Equal(t, []string{msgRecommendNoTarget}, rec.texts())

	rec = h.run(t, Event{Command: CmdRecommend, UserID: "u1", GroupID: "g1"})
	assert.Equal(t, []string{msgRecommendNoLibrary}, rec.texts())

	h.steam.libraries[sid1] = []steamapi.Game{game(1, "x", 1)}
	rec = h.run(t, Event{Command: CmdRecommend, UserID: "u1", GroupID: "g1"})
	assert.Equal(t, []string{msgRecommendNoOthers}, rec.texts())
}

func TestFriendEdgesOneDirectionSuffices(t *testing.T) {
	members := []string{sid1, sid2, sid3}
	friends := [][]string{
		{sid2, "76561198999999999"},
		{sid1},
		{sid1, sid3},
	}
	edges := friendEdges(members, friends)
	assert.Equal(t, []friendEdge{{sid1, sid2}, {sid1, sid3}}, edges)
}

func TestNetworkCommand(t *testing.T) {
	h := newHarness(t, binding.Snapshot{
		Users:  map[string]string{"u1": sid1, "u2": sid2, "u3": sid3},
		Groups: map[string]map[string]string{"g1": {"u1": sid1, "u2": sid2, "u3": sid3}},
	})
	a, b, c := publicSummary(sid1, "alice"), publicSummary(sid2, "bob"), publicSummary(sid3, "carol")
	a.GameID, a.GameExtraInfo = "570", "Dota 2"
	b.GameID, b.GameExtraInfo = "570", "Dota 2"
	c.GameID, c.GameExtraInfo = "730", "CS2"
	h.steam.summaries[sid1], h.steam.summaries[sid2], h.steam.summaries[sid3] = a, b, c
	h.steam.friends[sid3] = []string{sid1}

	rec := h.run(t, Event{Command: CmdNetwork, UserID: "u1", GroupID: "g1"})
	require.Len(t, rec.texts(), 1)
	out := rec.texts()[0]
	assert.Contains(t, out, "- 发现 1 对群友互为 Steam 好友：")
	assert.Contains(t, out, "1. alice ↔ carol")
	assert.Contains(t, out, "- Dota 2: alice, bob")
	assert.NotContains(t, out, "CS2")
}

func TestNetworkMessages(t *testing.T) {
	h := newHarness(t, binding.Snapshot{
		Users:  map[string]string{"u1": sid1, "u2": sid1},
		Groups: map[string]map[string]string{"g1": {"u1": sid1, "u2": sid1}},
	})
	rec := h.run(t, Event{Command: CmdNetwork, UserID: "u1"})
	assert.Equal(t, []string{msgGroupOnly}, rec.texts())

	rec = h.run(t, Event{Command: CmdNetwork, UserID: "u1", GroupID: "none"})
	assert.Equal(t, []string{msgNetworkNoGroup}, rec.texts())

	rec = h.run(t, Event{Command: CmdNetwork, UserID: "u1", GroupID: "g1"})
	assert.Equal(t, []string{msgNetworkTooFew}, rec.texts(), "distinct steam ids are counted")
}

func TestSortRanksStable(t *testing.T) {
	rows := []RankRow{
		{UserID: "a", Count: 5, TimeMinutes: 10},
		{UserID: "b", Count: 7, TimeMinutes: 10},
		{UserID: "c", Count: 5, TimeMinutes: 30},
		{UserID: "d", Count: 7, TimeMinutes: 5},
	}
	byCount := append([]RankRow(nil), rows...)
	sortRanks(byCount, sortByCount)
	assert.Equal(t, []string{"b", "d", "a", "c"}, userIDs(byCount))

	byTime := append([]RankRow(nil), rows...)
	sortRanks(byTime, sortByTime)
	assert.Equal(t, []string{"c", "a", "b", "d"}, userIDs(byTime))
}

func userIDs(rows []RankRow) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.UserID)
	}
	return out
}

func TestRankSingleMemberByTime(t *testing.T) {
	h := newHarness(t, binding.Snapshot{
		Users:  map[string]string{"u1": sid1},
		Groups: map[string]map[string]string{"g1": {"u1": sid1}},
	})
	h.steam.summaries[sid1] = publicSummary(sid1, "alice")
	h.steam.libraries[sid1] = []steamapi.Game{
		game(1, "a", 3000), game(2, "b", 100), game(3, "c", 50),
		game(4, "d", 20), game(5, "e", 10), game(6, "f", 5),
	}

	rec := h.run(t, Event{Command: CmdRank, UserID: "u1", GroupID: "g1", Arg: "时长"})

	assert.Equal(t, []string{"正在统计群内 Steam 肝帝排行，请稍候..."}, rec.texts())
	require.Equal(t, 1, rec.images())
	req := h.renderer.last(t)
	assert.Equal(t, "group_rank", req.Template)
	p := req.Data.(*RankPayload)
	assert.Equal(t, "time", p.SortBy)
	require.Len(t, p.Ranks, 1)
	row := p.Ranks[0]
	assert.Equal(t, "u1", row.UserID)
	assert.Equal(t, "alice", row.Name)
	assert.Equal(t, 6, row.Count)
	assert.Equal(t, 3185, row.TimeMinutes)
	assert.Equal(t, "53h (2.2d)", row.TimeStr)
	require.Len(t, row.TopGames, 5)
	assert.Equal(t, "cover://1/poster", row.TopGames[0].CoverURI)
}

func TestRankLinksSenderAndOrdersMembers(t *testing.T) {
	h := newHarness(t, binding.Snapshot{
		Users:  map[string]string{"u1": sid1, "u2": sid2, "u3": sid3},
		Groups: map[string]map[string]string{"g1": {"u2": sid2, "u3": sid3}},
	})
	h.steam.libraries[sid1] = []steamapi.Game{game(1, "a", 10)}
	h.steam.libraries[sid2] = []steamapi.Game{game(1, "a", 10)}
	h.steam.libraries[sid3] = []steamapi.Game{game(1, "a", 10), game(2, "b", 10)}

	h.run(t, Event{Command: CmdRank, UserID: "u1", GroupID: "g1", Arg: "数量"})

	assert.Equal(t, sid1, h.registry.Group("g1")["u1"], "sender linked before ranking")
	p := h.renderer.last(t).Data.(*RankPayload)
	assert.Equal(t, []string{"u3", "u1", "u2"}, userIDs(p.Ranks))
	assert.Equal(t, "User u1", p.Ranks[1].Name)
}

func TestRankMessages(t *testing.T) {
	h := newHarness(t, binding.Snapshot{})

	rec := h.run(t, Event{Command: CmdRank, UserID: "u1"})
	assert.Equal(t, []string{msgGroupOnly}, rec.texts())

	rec = h.run(t, Event{Command: CmdRank, UserID: "u1", GroupID: "g1"})
	assert.Equal(t, []string{msgRankNoGroup}, rec.texts())
}

func TestActivityProfileDecoratesEverySentGame(t *testing.T) {
	h := newHarness(t, binding.Snapshot{Users: map[string]string{"u1": sid1}})
	h.steam.summaries[sid1] = publicSummary(sid1, "alice")
	var lib []steamapi.Game
	for i := 0; i < 130; i++ {
		lib = append(lib, game(2000+i, "G", 3000-i))
	}
	h.steam.libraries[sid1] = lib

	rec := h.run(t, Event{Command: CmdActivity, UserID: "u1"})
	require.Equal(t, 1, rec.images())

	payload := h.renderer.last(t).Data.(*ProfilePayload)
	assert.Equal(t, "summary", payload.Mode)
	assert.Equal(t, 130, payload.TotalGames)
	require.Len(t, payload.OwnedGames, 100)
	for i, g := range payload.OwnedGames {
		assert.NotEmpty(t, g.CoverURI, "game %d sent without a cover", i)
		assert.Empty(t, g.GridClass, "summary view has no mosaic")
	}
}
