// Command steam-chat-bot is the entrypoint for the Steam chat bot.
// It:
//   - Loads configuration and initializes structured logging, metrics and tracing.
//   - Opens the binding registry (JSON file or Postgres with versioned migrations).
//   - Wires the Steam Web API client, cover resolver and image renderer into the
//     command service.
//   - Connects the Twitch IRC bot and exposes /healthz, /readyz, /status,
//     /metrics and /admin/bindings.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/steam-chat-bot/binding"
	"github.com/onnwee/steam-chat-bot/chat"
	"github.com/onnwee/steam-chat-bot/commands"
	"github.com/onnwee/steam-chat-bot/config"
	"github.com/onnwee/steam-chat-bot/cover"
	"github.com/onnwee/steam-chat-bot/db"
	"github.com/onnwee/steam-chat-bot/render"
	"github.com/onnwee/steam-chat-bot/server"
	"github.com/onnwee/steam-chat-bot/steamapi"
	"github.com/onnwee/steam-chat-bot/telemetry"
)

const serviceVersion = "1.0.0"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	setupLogging(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("steam-chat-bot", serviceVersion)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	if cfg.SteamAPIKey == "" {
		slog.Warn("STEAM_API_KEY not set; Steam commands will answer with a configuration hint")
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, database, err := openBindings(ctx, cfg)
	if err != nil {
		slog.Error("failed to open binding store", slog.Any("err", err), slog.String("store", cfg.BindingStore))
		os.Exit(1)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Error("failed to close binding store", slog.Any("err", err))
		}
	}()

	steam := steamapi.NewClient(cfg.SteamAPIKey, steamapi.Options{
		BaseURL:   cfg.SteamAPIBase,
		Proxy:     cfg.SteamProxy,
		RateLimit: cfg.SteamRateLimit,
	})
	covers := cover.NewResolver(cfg.CoverDir(), cover.DefaultCDN, cfg.SteamProxy)
	renderer := render.NewHTTPRenderer(cfg.RenderURL)
	if cfg.RenderURL == "" {
		slog.Warn("RENDER_URL not set; image commands will reply with the render failure text")
	}
	svc := commands.New(steam, registry, covers, renderer, commands.Settings{
		ImageQuality:         cfg.ImageQuality,
		RecommendSourceLimit: cfg.RecommendSourceLimit,
		RecommendResultLimit: cfg.RecommendResultLimit,
	})

	startPprof()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		deps := server.Deps{
			Bindings:      registry,
			Steam:         steam,
			DB:            database,
			AdminToken:    cfg.AdminToken,
			AdminUsername: cfg.AdminUsername,
			AdminPassword: cfg.AdminPassword,
		}
		if err := server.Start(ctx, deps, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	if err := cfg.ValidateChatReady(); err != nil {
		slog.Info("chat bot disabled", slog.Any("err", err))
	} else {
		bot := chat.New(chat.Options{
			Username: cfg.TwitchBotUsername,
			Token:    cfg.TwitchOAuthToken,
			Channels: cfg.TwitchChannels,
		}, svc)
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("starting chat bot", slog.Any("channels", cfg.TwitchChannels))
			if err := bot.Run(ctx); err != nil {
				slog.Error("chat bot exited with error", slog.Any("err", err))
			}
		}()
	}

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
	wg.Wait()
}

// setupLogging configures the default logger. Defaults: level=info, format=text.
func setupLogging(levelEnv, formatEnv string) {
	lvl := slog.LevelInfo
	unknown := false
	switch strings.ToLower(levelEnv) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		unknown = true
	}
	format := "text"
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	if strings.ToLower(formatEnv) == "json" {
		format = "json"
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	if unknown {
		slog.Warn("unknown LOG_LEVEL, using info", slog.String("value", levelEnv))
	}
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))
}

// openBindings opens the configured store. The returned *sql.DB is nil for
// the file store.
func openBindings(ctx context.Context, cfg *config.Config) (*binding.Registry, *sql.DB, error) {
	if cfg.BindingStore != config.StorePostgres {
		backend := binding.NewFileBackend(cfg.BindingFile())
		slog.Info("using file binding store", slog.String("path", backend.Path()))
		reg, err := binding.Open(ctx, backend)
		return reg, nil, err
	}

	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	// Versioned migrations first; the embedded idempotent schema covers
	// databases created before schema_migrations existed.
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting fallback to embedded SQL", slog.Any("err", err), slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			_ = database.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if version, dirty, err := db.GetMigrationVersion(database); err == nil {
		slog.Info("database schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty), slog.String("component", "db_migrate"))
	}
	reg, err := binding.Open(ctx, binding.NewPostgresBackend(database))
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return reg, database, nil
}

// startPprof serves /debug/pprof when ENABLE_PPROF=1.
func startPprof() {
	if os.Getenv("ENABLE_PPROF") != "1" {
		return
	}
	pprofAddr := os.Getenv("PPROF_ADDR")
	if pprofAddr == "" {
		pprofAddr = "localhost:6060"
	}
	go func() {
		slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
		srv := &http.Server{
			Addr:              pprofAddr,
			Handler:           nil, // default mux exposes /debug/pprof
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("pprof server error", slog.Any("err", err))
		}
	}()
}
