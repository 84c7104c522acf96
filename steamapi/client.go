// Package steamapi wraps the handful of Steam Web API endpoints the bot needs.
// Responses are read-through cached for CacheTTL. Transport errors, non-200
// statuses and malformed JSON are logged and surface as empty results; no
// method returns an error.
package steamapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/onnwee/steam-chat-bot/telemetry"
)

// DefaultBaseURL is the public Steam Web API host.
const DefaultBaseURL = "http://api.steampowered.com"

const (
	epPlayerSummaries = "ISteamUser/GetPlayerSummaries/v0002/"
	epOwnedGames      = "IPlayerService/GetOwnedGames/v0001/"
	epRecentGames     = "IPlayerService/GetRecentlyPlayedGames/v0001/"
	epUserStats       = "ISteamUserStats/GetUserStatsForGame/v0002/"
	epSchema          = "ISteamUserStats/GetSchemaForGame/v2/"
	epPlayerBans      = "ISteamUser/GetPlayerBans/v1/"
	epFriendList      = "ISteamUser/GetFriendList/v0001/"
)

// maxSummaryIDs is the most steamids GetPlayerSummaries accepts per call.
const maxSummaryIDs = 100

// Options tune a Client. Zero values pick defaults.
type Options struct {
	BaseURL   string
	Proxy     string
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 disables limiting
	CacheSize int
	Now       func() time.Time
}

// Client talks to the Steam Web API.
type Client struct {
	apiKey  string
	http    *resty.Client
	limiter *rate.Limiter
	cache   *Cache
}

// NewClient builds a client for apiKey.
func NewClient(apiKey string, opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if opts.Proxy != "" {
		hc.SetProxy(opts.Proxy)
	}
	var lim *rate.Limiter
	if opts.RateLimit > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.RateLimit), 10)
	}
	return &Client{
		apiKey:  apiKey,
		http:    hc,
		limiter: lim,
		cache:   NewCache(opts.CacheSize, CacheTTL, opts.Now),
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

// CacheLen exposes the number of cached responses.
func (c *Client) CacheLen() int { return c.cache.Len() }

// GetPlayerSummary returns the summary of one account, or nil.
// forceRefresh skips the cache lookup so live "currently playing" state is seen.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string, forceRefresh bool) *PlayerSummary {
	if steamID == "" {
		return nil
	}
	return cached(c.cache, "summary_"+steamID, forceRefresh, cloneSummary, func() (*PlayerSummary, bool) {
		var body summariesResponse
		if !c.request(ctx, epPlayerSummaries, map[string]string{"steamids": steamID}, &body) {
			return nil, false
		}
		if len(body.Response.Players) == 0 {
			return nil, false
		}
		p := body.Response.Players[0]
		return &p, true
	})
}

// GetPlayerSummaries returns summaries for several accounts. Ids are sent in
// batches of maxSummaryIDs, each cached on its own; a failed batch only drops
// its own players.
func (c *Client) GetPlayerSummaries(ctx context.Context, steamIDs []string, forceRefresh bool) []PlayerSummary {
	if len(steamIDs) == 0 {
		return nil
	}
	var out []PlayerSummary
	for batch := range slices.Chunk(steamIDs, maxSummaryIDs) {
		joined := strings.Join(batch, ",")
		players := cached(c.cache, "summaries_"+joined, forceRefresh, slices.Clone[[]PlayerSummary], func() ([]PlayerSummary, bool) {
			var body summariesResponse
			if !c.request(ctx, epPlayerSummaries, map[string]string{"steamids": joined}, &body) {
				return nil, false
			}
			return body.Response.Players, len(body.Response.Players) > 0
		})
		out = append(out, players...)
	}
	return out
}

// GetOwnedGames returns the account's library sorted by lifetime playtime, descending.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) []Game {
	if steamID == "" {
		return nil
	}
	return cached(c.cache, "games_"+steamID, false, slices.Clone[[]Game], func() ([]Game, bool) {
		var body gamesResponse
		params := map[string]string{
			"steamid":                   steamID,
			"include_appinfo":           "1",
			"include_played_free_games": "1",
		}
		if !c.request(ctx, epOwnedGames, params, &body) {
			return nil, false
		}
		games := body.Response.Games
		slices.SortStableFunc(games, func(a, b Game) int { return b.PlaytimeForever - a.PlaytimeForever })
		return games, len(games) > 0
	})
}

// GetRecentlyPlayedGames returns up to ten games played in the last two weeks.
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, steamID string) []Game {
	if steamID == "" {
		return nil
	}
	return cached(c.cache, "recent_"+steamID, false, slices.Clone[[]Game], func() ([]Game, bool) {
		var body gamesResponse
		if !c.request(ctx, epRecentGames, map[string]string{"steamid": steamID, "count": "10"}, &body) {
			return nil, false
		}
		return body.Response.Games, len(body.Response.Games) > 0
	})
}

// GetUserStatsForGame returns unlock records, or nil when the game has no
// stats or the profile hides them.
func (c *Client) GetUserStatsForGame(ctx context.Context, steamID string, appID int) *UserStats {
	if steamID == "" || appID == 0 {
		return nil
	}
	app := strconv.Itoa(appID)
	return cached(c.cache, "stats_"+steamID+"_"+app, false, (*UserStats).clone, func() (*UserStats, bool) {
		var body statsResponse
		if !c.request(ctx, epUserStats, map[string]string{"steamid": steamID, "appid": app}, &body) {
			return nil, false
		}
		return body.PlayerStats, body.PlayerStats != nil
	})
}

// GetSchemaForGame returns the declared achievements of a game, or nil.
func (c *Client) GetSchemaForGame(ctx context.Context, appID int) *GameSchema {
	if appID == 0 {
		return nil
	}
	app := strconv.Itoa(appID)
	return cached(c.cache, "schema_"+app, false, (*GameSchema).clone, func() (*GameSchema, bool) {
		var body schemaResponse
		if !c.request(ctx, epSchema, map[string]string{"appid": app}, &body) {
			return nil, false
		}
		return body.Game, body.Game != nil
	})
}

// GetPlayerBans returns VAC / game / community ban records, or nil.
func (c *Client) GetPlayerBans(ctx context.Context, steamIDs ...string) []PlayerBan {
	if len(steamIDs) == 0 {
		return nil
	}
	joined := strings.Join(steamIDs, ",")
	return cached(c.cache, "bans_"+joined, false, slices.Clone[[]PlayerBan], func() ([]PlayerBan, bool) {
		var body bansResponse
		if !c.request(ctx, epPlayerBans, map[string]string{"steamids": joined}, &body) {
			return nil, false
		}
		return body.Players, body.Players != nil
	})
}

// GetFriendList returns friend Steam IDs (relationship=friend). Private
// profiles and failures yield an empty list.
func (c *Client) GetFriendList(ctx context.Context, steamID string) []string {
	if steamID == "" {
		return nil
	}
	return cached(c.cache, "friends_"+steamID, false, slices.Clone[[]string], func() ([]string, bool) {
		var body friendListResponse
		if !c.request(ctx, epFriendList, map[string]string{"steamid": steamID, "relationship": "friend"}, &body) {
			return nil, false
		}
		if body.FriendsList == nil {
			return nil, false
		}
		ids := make([]string, 0, len(body.FriendsList.Friends))
		for _, f := range body.FriendsList.Friends {
			if f.SteamID != "" {
				ids = append(ids, f.SteamID)
			}
		}
		return ids, len(ids) > 0
	})
}

// request performs one GET and decodes the JSON body into out. It reports
// false on any failure after logging it.
func (c *Client) request(ctx context.Context, endpoint string, params map[string]string, out any) bool {
	name := endpointName(endpoint)
	ctx, span := telemetry.StartSpan(ctx, "steamapi", name, telemetry.SteamEndpointAttr(name))
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "steamapi"), slog.String("endpoint", name))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			log.Warn("steam api rate limiter wait aborted", slog.Any("err", err))
			telemetry.RecordError(span, err)
			return false
		}
	}

	q := map[string]string{"key": c.apiKey, "format": "json"}
	for k, v := range params {
		q[k] = v
	}

	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(q).Get(endpoint)
	if err != nil {
		telemetry.ObserveSteamRequest(name, "error", time.Since(start))
		telemetry.RecordError(span, err)
		log.Error("steam api request failed", slog.String("err", c.redact(err.Error())))
		return false
	}
	if resp.StatusCode() != http.StatusOK {
		telemetry.ObserveSteamRequest(name, "status_"+strconv.Itoa(resp.StatusCode()), time.Since(start))
		log.Error("steam api returned non-200", slog.Int("status", resp.StatusCode()), slog.String("body", truncate(resp.String(), 512)))
		return false
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		telemetry.ObserveSteamRequest(name, "decode_error", time.Since(start))
		telemetry.RecordError(span, err)
		log.Error("steam api response decode failed", slog.Any("err", err))
		return false
	}
	telemetry.ObserveSteamRequest(name, "ok", time.Since(start))
	telemetry.SetSpanSuccess(span)
	return true
}

// redact hides the API key, which resty echoes back inside url errors.
func (c *Client) redact(s string) string {
	if c.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, c.apiKey, "***")
}

func endpointName(endpoint string) string {
	parts := strings.Split(endpoint, "/")
	if len(parts) > 1 {
		return parts[1]
	}
	return endpoint
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func cloneSummary(p *PlayerSummary) *PlayerSummary {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
