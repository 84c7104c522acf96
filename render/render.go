// Package render hands template payloads to an external HTML-to-image service.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onnwee/steam-chat-bot/telemetry"
)

// FailureText is shown in chat when an image could not be produced.
const FailureText = "图片渲染失败，请稍后再试。"

// ErrNotConfigured is returned by a renderer without an endpoint.
var ErrNotConfigured = errors.New("renderer not configured")

// Options are passed through to the renderer verbatim.
type Options struct {
	Width          int    `json:"width"`
	FullPage       bool   `json:"full_page"`
	OmitBackground bool   `json:"omit_background"`
	Type           string `json:"type"`
	Quality        int    `json:"quality"`
}

// DefaultOptions returns the fixed option set used by every view.
func DefaultOptions(width, quality int) Options {
	return Options{
		Width:          width,
		FullPage:       true,
		OmitBackground: true,
		Type:           "jpeg",
		Quality:        ClampQuality(quality),
	}
}

// ClampQuality bounds q to 10..100.
func ClampQuality(q int) int {
	return max(10, min(100, q))
}

// Request is one render job.
type Request struct {
	Template string  `json:"template"`
	Data     any     `json:"data"`
	Options  Options `json:"options"`
}

// Result points at the produced image.
type Result struct {
	URL string `json:"url"`
}

// Renderer turns a template payload into an image.
type Renderer interface {
	Render(ctx context.Context, req Request) (*Result, error)
}

// HTTPRenderer posts requests to an HTTP render service.
type HTTPRenderer struct {
	endpoint string
	http     *resty.Client
}

// NewHTTPRenderer returns a renderer posting to endpoint.
func NewHTTPRenderer(endpoint string) *HTTPRenderer {
	return &HTTPRenderer{
		endpoint: strings.TrimSpace(endpoint),
		http:     resty.New().SetTimeout(60 * time.Second),
	}
}

// Render posts req and expects {"url": "..."} back.
func (h *HTTPRenderer) Render(ctx context.Context, req Request) (*Result, error) {
	if h.endpoint == "" {
		telemetry.IncRender(req.Template, "unconfigured")
		return nil, ErrNotConfigured
	}
	ctx, span := telemetry.StartSpan(ctx, "render", "render."+req.Template)
	defer span.End()

	var (
		out  Result
		resp *resty.Response
		err  error
	)
	telemetry.TimeFunc(telemetry.RenderObserver(req.Template), func() {
		resp, err = h.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(req).
			SetResult(&out).
			Post(h.endpoint)
	})
	if err != nil {
		telemetry.IncRender(req.Template, "error")
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("render %s: %w", req.Template, err)
	}
	if resp.StatusCode() != http.StatusOK {
		telemetry.IncRender(req.Template, "error")
		err := fmt.Errorf("render %s: status %d", req.Template, resp.StatusCode())
		telemetry.RecordError(span, err)
		telemetry.LoggerWithCorr(ctx).Warn("renderer returned non-200", slog.Int("status", resp.StatusCode()), slog.String("template", req.Template))
		return nil, err
	}
	if out.URL == "" {
		telemetry.IncRender(req.Template, "error")
		return nil, fmt.Errorf("render %s: empty url in response", req.Template)
	}
	telemetry.IncRender(req.Template, "ok")
	telemetry.SetSpanSuccess(span)
	return &out, nil
}
