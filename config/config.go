// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (e.g., Twitch chat), use ValidateChatReady.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/db"
	"github.com/onnwee/steam-chat-bot/render"
	"github.com/onnwee/steam-chat-bot/steamapi"
)

// DefaultChannel is the sentinel for "no channel configured".
const DefaultChannel = ""

// Binding store kinds.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// ErrChatNotReady is returned by ValidateChatReady when IRC credentials are incomplete.
var ErrChatNotReady = errors.New("missing twitch env: require TWITCH_CHANNELS (or TWITCH_CHANNEL), TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN")

type Config struct {
	// Steam
	SteamAPIKey    string
	SteamProxy     string
	SteamAPIBase   string
	SteamRateLimit float64

	// Commands
	ImageQuality         int
	RecommendSourceLimit int
	RecommendResultLimit int

	// Storage
	DataDir      string
	BindingStore string
	DBDsn        string

	// Twitch
	TwitchChannels    []string
	TwitchBotUsername string
	TwitchOAuthToken  string

	// Renderer / HTTP
	RenderURL string
	HTTPAddr  string

	// Admin API
	AdminToken    string
	AdminUsername string
	AdminPassword string
}

// Load reads environment variables and applies defaults. It doesn't fail if Twitch creds or the
// Steam key are missing; use ValidateChatReady() when you require the chat bot.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.SteamAPIKey = strings.TrimSpace(os.Getenv("STEAM_API_KEY"))
	cfg.SteamProxy = os.Getenv("STEAM_PROXY")
	cfg.SteamAPIBase = os.Getenv("STEAM_API_BASE")
	if cfg.SteamAPIBase == "" {
		cfg.SteamAPIBase = steamapi.DefaultBaseURL
	}
	cfg.SteamRateLimit = 10
	if v := os.Getenv("STEAM_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid STEAM_RATE_LIMIT: %w", err)
		}
		cfg.SteamRateLimit = f
	}

	var err error
	if cfg.ImageQuality, err = intEnv("IMAGE_QUALITY", 90); err != nil {
		return nil, err
	}
	cfg.ImageQuality = render.ClampQuality(cfg.ImageQuality)
	if cfg.RecommendSourceLimit, err = intEnv("RECOMMEND_SOURCE_LIMIT", 40); err != nil {
		return nil, err
	}
	cfg.RecommendSourceLimit = max(10, cfg.RecommendSourceLimit)
	if cfg.RecommendResultLimit, err = intEnv("RECOMMEND_RESULT_LIMIT", 6); err != nil {
		return nil, err
	}
	cfg.RecommendResultLimit = max(3, cfg.RecommendResultLimit)

	// Storage
	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	cfg.BindingStore = strings.ToLower(os.Getenv("BINDING_STORE"))
	switch cfg.BindingStore {
	case "":
		cfg.BindingStore = StoreFile
	case StoreFile, StorePostgres:
	default:
		return nil, fmt.Errorf("invalid BINDING_STORE %q (want file or postgres)", cfg.BindingStore)
	}
	cfg.DBDsn = os.Getenv("DB_DSN")
	if cfg.DBDsn == "" {
		cfg.DBDsn = db.DefaultDSN
	}

	// Twitch
	cfg.TwitchChannels = splitChannels(os.Getenv("TWITCH_CHANNELS"))
	if len(cfg.TwitchChannels) == 0 {
		cfg.TwitchChannels = splitChannels(os.Getenv("TWITCH_CHANNEL"))
	}
	cfg.TwitchBotUsername = strings.ToLower(os.Getenv("TWITCH_BOT_USERNAME"))
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")
	if cfg.TwitchOAuthToken != "" && !strings.HasPrefix(cfg.TwitchOAuthToken, "oauth:") {
		cfg.TwitchOAuthToken = "oauth:" + cfg.TwitchOAuthToken
	}

	cfg.RenderURL = os.Getenv("RENDER_URL")
	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")
	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	return cfg, nil
}

// BindingFile is where the file backend keeps the registry.
func (c *Config) BindingFile() string { return filepath.Join(c.DataDir, binding.FileName) }

// CoverDir is the on-disk cover cache.
func (c *Config) CoverDir() string { return filepath.Join(c.DataDir, "covers") }

// ValidateChatReady checks required fields when the chat bot is enabled.
func (c *Config) ValidateChatReady() error {
	if len(c.TwitchChannels) == 0 || c.TwitchBotUsername == "" || c.TwitchOAuthToken == "" {
		return ErrChatNotReady
	}
	return nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// splitChannels parses a comma list into lowercase channel names without '#'.
func splitChannels(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		ch := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "#"))
		if ch != "" && ch != DefaultChannel {
			out = append(out, ch)
		}
	}
	return out
}
