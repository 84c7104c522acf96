// Package cover resolves Steam game artwork to data URIs, caching downloads on
// local disk. A file present at the expected path is trusted as-is; nothing
// here ever fails the caller.
package cover

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/steam-chat-bot/telemetry"
)

// DefaultCDN is the Steam static content base for per-app artwork.
const DefaultCDN = "https://cdn.cloudflare.steamstatic.com/steam/apps"

// Variant selects which artwork to fetch.
type Variant string

const (
	Poster Variant = "poster"
	Hero   Variant = "hero"
)

const (
	dirMode  = 0o755
	fileMode = 0o644

	maxParallel = 8
)

// Resolver fetches and caches cover images.
type Resolver struct {
	dir  string
	cdn  string
	http *resty.Client
}

// NewResolver stores covers under dir. cdn may be empty for DefaultCDN.
func NewResolver(dir, cdn, proxy string) *Resolver {
	if cdn == "" {
		cdn = DefaultCDN
	}
	hc := resty.New().SetTimeout(20 * time.Second)
	if proxy != "" {
		hc.SetProxy(proxy)
	}
	return &Resolver{dir: dir, cdn: strings.TrimRight(cdn, "/"), http: hc}
}

// Candidates lists the URLs tried for appID, best first.
func (r *Resolver) Candidates(appID int, variant Variant) []string {
	base := r.cdn + "/" + strconv.Itoa(appID)
	if variant == Hero {
		return []string{base + "/library_hero.jpg", base + "/library_hero.png", base + "/header.jpg"}
	}
	return []string{base + "/library_600x900.jpg", base + "/library_600x900.png", base + "/header.jpg"}
}

// Resolve returns a data URI for the first candidate found on disk or
// downloadable, or the last candidate URL when every download fails.
func (r *Resolver) Resolve(ctx context.Context, appID int, variant Variant) string {
	if appID == 0 {
		return ""
	}
	if variant == "" {
		variant = Poster
	}
	candidates := r.Candidates(appID, variant)
	for _, u := range candidates {
		ext := ".jpg"
		if strings.HasSuffix(strings.ToLower(u), ".png") {
			ext = ".png"
		}
		dest := filepath.Join(r.dir, fmt.Sprintf("%d_%s%s", appID, variant, ext))
		if uri, ok := r.loadCached(dest); ok {
			telemetry.IncCover("disk")
			return uri
		}
		if data, ok := r.download(ctx, u, dest); ok {
			telemetry.IncCover("download")
			return DataURI(data, ext)
		}
	}
	telemetry.IncCover("fallback")
	return candidates[len(candidates)-1]
}

// ResolveMany resolves several covers concurrently. Entries that fail are
// absent from the result.
func (r *Resolver) ResolveMany(ctx context.Context, appIDs []int, variant Variant) map[int]string {
	out := make(map[int]string, len(appIDs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	seen := make(map[int]bool, len(appIDs))
	for _, id := range appIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			uri := r.Resolve(gctx, id, variant)
			if uri == "" {
				return nil
			}
			mu.Lock()
			out[id] = uri
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors
	return out
}

func (r *Resolver) loadCached(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to read cached cover", slog.String("path", path), slog.Any("err", err))
		}
		return "", false
	}
	return DataURI(data, filepath.Ext(path)), true
}

func (r *Resolver) download(ctx context.Context, url, dest string) ([]byte, bool) {
	resp, err := r.http.R().SetContext(ctx).Get(url)
	if err != nil {
		slog.Warn("failed to download cover", slog.String("url", url), slog.Any("err", err))
		return nil, false
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, false
	}
	data := resp.Body()
	if err := os.MkdirAll(filepath.Dir(dest), dirMode); err != nil {
		slog.Warn("failed to create cover dir", slog.String("path", dest), slog.Any("err", err))
		return data, true
	}
	if err := writeAtomic(dest, data); err != nil {
		slog.Warn("failed to persist cover", slog.String("path", dest), slog.Any("err", err))
	}
	return data, true
}

// writeAtomic writes to a temp sibling and renames it over dest, so a reader
// sees either no file or the whole image.
func writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cover: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod cover: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cover: %w", err)
	}
	return nil
}

// DataURI embeds image bytes; ext picks png or jpeg.
func DataURI(data []byte, ext string) string {
	mime := "jpeg"
	if strings.EqualFold(ext, ".png") {
		mime = "png"
	}
	return "data:image/" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
