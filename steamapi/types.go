package steamapi

import "slices"

// PlayerSummary is one entry of ISteamUser/GetPlayerSummaries.
type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
	AvatarHash               string `json:"avatarhash"`
	PersonaState             int    `json:"personastate"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	ProfileState             int    `json:"profilestate"`
	LastLogoff               int64  `json:"lastlogoff"`
	TimeCreated              int64  `json:"timecreated"`
	RealName                 string `json:"realname,omitempty"`
	LocCountryCode           string `json:"loccountrycode,omitempty"`
	GameID                   string `json:"gameid,omitempty"`
	GameExtraInfo            string `json:"gameextrainfo,omitempty"`
}

// visibilityPublic is the communityvisibilitystate value for a public profile.
const visibilityPublic = 3

// IsPrivate reports whether library data is hidden from the API key.
func (p PlayerSummary) IsPrivate() bool { return p.CommunityVisibilityState != visibilityPublic }

// IsPlaying reports whether the summary carries a currently running game.
func (p PlayerSummary) IsPlaying() bool { return p.GameExtraInfo != "" && p.GameID != "" }

// Game is an owned or recently played game record.
type Game struct {
	AppID                    int    `json:"appid"`
	Name                     string `json:"name"`
	PlaytimeForever          int    `json:"playtime_forever"`
	Playtime2Weeks           int    `json:"playtime_2weeks,omitempty"`
	ImgIconURL               string `json:"img_icon_url,omitempty"`
	HasCommunityVisibleStats bool   `json:"has_community_visible_stats,omitempty"`
	RTimeLastPlayed          int64  `json:"rtime_last_played,omitempty"`
}

// UserAchievement is a per-user unlock record.
type UserAchievement struct {
	Name       string `json:"name"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime,omitempty"`
}

// Unlocked reports whether the record counts as unlocked.
func (a UserAchievement) Unlocked() bool { return a.Achieved == 1 || a.UnlockTime > 0 }

// UserStat is a numeric per-user game stat.
type UserStat struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// UserStats is the playerstats object of ISteamUserStats/GetUserStatsForGame.
type UserStats struct {
	SteamID      string            `json:"steamID"`
	GameName     string            `json:"gameName"`
	Achievements []UserAchievement `json:"achievements"`
	Stats        []UserStat        `json:"stats"`
}

// UnlockedCount counts unlocked achievements.
func (s *UserStats) UnlockedCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, a := range s.Achievements {
		if a.Unlocked() {
			n++
		}
	}
	return n
}

func (s *UserStats) clone() *UserStats {
	out := *s
	out.Achievements = slices.Clone(s.Achievements)
	out.Stats = slices.Clone(s.Stats)
	return &out
}

// SchemaAchievement is one declared achievement of a game.
type SchemaAchievement struct {
	Name         string `json:"name"`
	DefaultValue int    `json:"defaultvalue"`
	DisplayName  string `json:"displayName"`
	Hidden       int    `json:"hidden"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	IconGray     string `json:"icongray"`
}

// GameSchema is the game object of ISteamUserStats/GetSchemaForGame.
type GameSchema struct {
	GameName           string `json:"gameName"`
	GameVersion        string `json:"gameVersion"`
	AvailableGameStats struct {
		Achievements []SchemaAchievement `json:"achievements"`
	} `json:"availableGameStats"`
}

// Achievements returns the declared achievement list, nil-safe.
func (g *GameSchema) Achievements() []SchemaAchievement {
	if g == nil {
		return nil
	}
	return g.AvailableGameStats.Achievements
}

func (g *GameSchema) clone() *GameSchema {
	out := *g
	out.AvailableGameStats.Achievements = slices.Clone(g.AvailableGameStats.Achievements)
	return &out
}

// PlayerBan is one entry of ISteamUser/GetPlayerBans.
type PlayerBan struct {
	SteamID          string `json:"SteamId"`
	CommunityBanned  bool   `json:"CommunityBanned"`
	VACBanned        bool   `json:"VACBanned"`
	NumberOfVACBans  int    `json:"NumberOfVACBans"`
	DaysSinceLastBan int    `json:"DaysSinceLastBan"`
	NumberOfGameBans int    `json:"NumberOfGameBans"`
	EconomyBan       string `json:"EconomyBan"`
}

// wire envelopes

type summariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

type gamesResponse struct {
	Response struct {
		GameCount *int   `json:"game_count"`
		Games     []Game `json:"games"`
	} `json:"response"`
}

type statsResponse struct {
	PlayerStats *UserStats `json:"playerstats"`
}

type schemaResponse struct {
	Game *GameSchema `json:"game"`
}

type bansResponse struct {
	Players []PlayerBan `json:"players"`
}

type friendListResponse struct {
	FriendsList *struct {
		Friends []struct {
			SteamID      string `json:"steamid"`
			Relationship string `json:"relationship"`
			FriendSince  int64  `json:"friend_since"`
		} `json:"friends"`
	} `json:"friendslist"`
}
