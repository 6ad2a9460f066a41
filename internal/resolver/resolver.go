// Package resolver turns a validated video reference into normalized
// metadata with a bounded, sorted format list.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ytfetch/ytfetch/internal/config"
	"github.com/ytfetch/ytfetch/internal/cookies"
	"github.com/ytfetch/ytfetch/internal/domain"
	"github.com/ytfetch/ytfetch/internal/faults"
	"github.com/ytfetch/ytfetch/internal/ratelimit"
	"github.com/ytfetch/ytfetch/internal/ytdlp"
)

// MetadataBackend is the extraction capability the resolver consumes.
type MetadataBackend interface {
	FetchMetadata(ctx context.Context, url string, opts ytdlp.Options) (*ytdlp.RawInfo, error)
}

// Resolver authenticates, queries the backend, and normalizes its raw
// format list into a VideoMetadata.
type Resolver struct {
	backend MetadataBackend
	limiter *ratelimit.Limiter
	cookies *cookies.Store
	cfg     *config.Config
}

// New creates a Resolver.
func New(backend MetadataBackend, limiter *ratelimit.Limiter, store *cookies.Store, cfg *config.Config) *Resolver {
	return &Resolver{
		backend: backend,
		limiter: limiter,
		cookies: store,
		cfg:     cfg,
	}
}

// Resolve fetches and normalizes metadata for ref on behalf of userID.
// Absent credentials are not an error; some videos are simply unreachable
// without them. Transient backend failures get a fast local retry with a
// fixed short delay, distinct from the download path's exponential backoff.
func (r *Resolver) Resolve(ctx context.Context, ref domain.VideoReference, userID int64) (*domain.VideoMetadata, error) {
	if ref.IsZero() {
		return nil, faults.New(faults.KindInvalidInput, "empty video reference")
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	opts := ytdlp.Options{UserAgent: r.cfg.UserAgent}
	if path, ok := r.cookies.Lookup(userID); ok {
		opts.CookiePath = path
	}

	raw, err := r.fetchWithLocalRetry(ctx, ref.URL(), opts)
	if err != nil {
		return nil, err
	}

	meta := &domain.VideoMetadata{
		Title:      raw.Title,
		Duration:   int(raw.Duration),
		Channel:    raw.ChannelName(),
		UploadDate: raw.UploadDate,
		Thumbnail:  raw.BestThumbnail(),
		ViewCount:  raw.ViewCount,
		Width:      raw.Width,
		Height:     raw.Height,
		Formats:    normalizeFormats(raw.Formats, r.cfg.MaxFormats),
	}

	if r.cfg.MaxDuration > 0 && time.Duration(meta.Duration)*time.Second > r.cfg.MaxDuration {
		return nil, faults.New(faults.KindInvalidInput,
			fmt.Sprintf("video is too long: %s exceeds the %s limit", meta.DurationString(), r.cfg.MaxDuration))
	}

	slog.Info("metadata resolved",
		"title", meta.Title,
		"duration", meta.Duration,
		"formats", len(meta.Formats),
		"authenticated", opts.CookiePath != "",
	)
	return meta, nil
}

func (r *Resolver) fetchWithLocalRetry(ctx context.Context, url string, opts ytdlp.Options) (*ytdlp.RawInfo, error) {
	var lastErr error

	attempts := r.cfg.MetadataRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		raw, err := r.backend.FetchMetadata(ctx, url, opts)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		kind, _ := faults.KindOf(err)
		if !kind.Retryable() || attempt == attempts-1 {
			break
		}

		slog.Debug("metadata fetch failed, retrying",
			"attempt", attempt+1, "kind", kind.String(), "error", err)
		select {
		case <-time.After(r.cfg.MetadataRetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// normalizeFormats drops entries without a usable video codec, deduplicates
// by format id (first occurrence wins), labels resolutions, sorts by the
// ordering invariant and truncates to max entries.
func normalizeFormats(raw []ytdlp.RawFormat, max int) []domain.FormatDescriptor {
	seen := make(map[string]bool, len(raw))
	formats := make([]domain.FormatDescriptor, 0, len(raw))

	for _, f := range raw {
		if f.VCodec == "" || f.VCodec == "none" {
			continue
		}
		if f.FormatID == "" || seen[f.FormatID] {
			continue
		}
		seen[f.FormatID] = true

		formats = append(formats, domain.FormatDescriptor{
			ID:         f.FormatID,
			Resolution: resolutionLabel(f),
			Ext:        f.Ext,
			FileSize:   f.FileSize,
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			HasAudio:   f.ACodec != "" && f.ACodec != "none",
			Height:     f.Height,
		})
	}

	domain.SortFormats(formats)

	if len(formats) > max {
		formats = formats[:max]
	}
	return formats
}

func resolutionLabel(f ytdlp.RawFormat) string {
	if f.Height <= 0 {
		return "unknown"
	}
	if f.FPS > 0 {
		return fmt.Sprintf("%dp%dfps", f.Height, int(f.FPS))
	}
	return fmt.Sprintf("%dp", f.Height)
}
