// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	SteamRequests    *prometheus.CounterVec // endpoint, outcome
	CacheLookups     *prometheus.CounterVec // result
	CoverResolutions *prometheus.CounterVec // source
	CommandsTotal    *prometheus.CounterVec // command, outcome
	RendersTotal     *prometheus.CounterVec // template, outcome

	// Histograms (seconds)
	SteamRequestDuration *prometheus.HistogramVec
	CommandDuration      *prometheus.HistogramVec
	RenderDuration       *prometheus.HistogramVec

	// Gauges
	BoundUsersGauge  prometheus.Gauge
	BoundGroupsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SteamRequests = promauto.NewCounterVec(prometheus.CounterOpts{Name: "steam_api_requests_total", Help: "Steam Web API requests by endpoint and outcome"}, []string{"endpoint", "outcome"})
		CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{Name: "steam_api_cache_total", Help: "Steam API cache lookups by result (hit, miss, expired)"}, []string{"result"})
		CoverResolutions = promauto.NewCounterVec(prometheus.CounterOpts{Name: "steam_cover_total", Help: "Cover resolutions by source (disk, download, fallback)"}, []string{"source"})
		CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "steam_commands_total", Help: "Chat commands handled by command and outcome"}, []string{"command", "outcome"})
		RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "steam_render_total", Help: "Render calls by template and outcome"}, []string{"template", "outcome"})
		SteamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "steam_api_request_duration_seconds", Help: "Steam Web API request duration seconds", Buckets: prometheus.DefBuckets}, []string{"endpoint"})
		CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "steam_command_duration_seconds", Help: "Chat command duration seconds", Buckets: prometheus.DefBuckets}, []string{"command"})
		RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "steam_render_duration_seconds", Help: "Render service round-trip seconds", Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60}}, []string{"template"})
		BoundUsersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "steam_bound_users", Help: "Current number of chat users bound to a Steam ID"})
		BoundGroupsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "steam_bound_groups", Help: "Current number of groups with at least one synced binding"})
	})
}

// ObserveSteamRequest counts one upstream call and records its latency.
func ObserveSteamRequest(endpoint, outcome string, d time.Duration) {
	if SteamRequests != nil {
		SteamRequests.WithLabelValues(endpoint, outcome).Inc()
	}
	if SteamRequestDuration != nil {
		SteamRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// IncCache records a cache lookup result.
func IncCache(result string) {
	if CacheLookups != nil {
		CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncCover records where a cover image came from.
func IncCover(source string) {
	if CoverResolutions != nil {
		CoverResolutions.WithLabelValues(source).Inc()
	}
}

// ObserveCommand counts a handled chat command and records its duration.
func ObserveCommand(command, outcome string, d time.Duration) {
	if CommandsTotal != nil {
		CommandsTotal.WithLabelValues(command, outcome).Inc()
	}
	if CommandDuration != nil {
		CommandDuration.WithLabelValues(command).Observe(d.Seconds())
	}
}

// IncRender records a render call.
func IncRender(template, outcome string) {
	if RendersTotal != nil {
		RendersTotal.WithLabelValues(template, outcome).Inc()
	}
}

// RenderObserver returns the duration observer for template, or nil before Init.
func RenderObserver(template string) prometheus.Observer {
	if RenderDuration == nil {
		return nil
	}
	return RenderDuration.WithLabelValues(template)
}

// SetBindingCounts records current binding totals.
func SetBindingCounts(users, groups int) {
	if BoundUsersGauge != nil {
		BoundUsersGauge.Set(float64(users))
	}
	if BoundGroupsGauge != nil {
		BoundGroupsGauge.Set(float64(groups))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
