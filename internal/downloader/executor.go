// Package downloader performs media retrieval against the extraction
// backend, with format fallback, artifact location and progress reporting.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ytfetch/ytfetch/internal/config"
	"github.com/ytfetch/ytfetch/internal/cookies"
	"github.com/ytfetch/ytfetch/internal/domain"
	"github.com/ytfetch/ytfetch/internal/faults"
	"github.com/ytfetch/ytfetch/internal/ratelimit"
	"github.com/ytfetch/ytfetch/internal/storage"
	"github.com/ytfetch/ytfetch/internal/ytdlp"
)

// SelectorBest asks for the best available quality instead of a specific
// backend format id.
const SelectorBest = "best"

// fallbackFormatID is the known-good low-resolution combined format used as
// the last resort of every fallback path.
const fallbackFormatID = "18"

// DownloadBackend is the transfer capability the executor consumes.
type DownloadBackend interface {
	Download(ctx context.Context, url, formatExpr, outputTemplate string, opts ytdlp.Options, onProgress func(ytdlp.Progress)) error
}

// Request describes one download invocation.
type Request struct {
	Ref      domain.VideoReference
	Selector string
	UserID   int64
	// Meta is the metadata resolved for this reference earlier in the
	// interaction; it supplies the title, duration and dimensions.
	Meta *domain.VideoMetadata
}

// Executor drives one media transfer to local storage.
type Executor struct {
	backend   DownloadBackend
	limiter   *ratelimit.Limiter
	cookies   *cookies.Store
	artifacts *storage.ArtifactStore
	cfg       *config.Config
}

// New creates an Executor.
func New(backend DownloadBackend, limiter *ratelimit.Limiter, store *cookies.Store, artifacts *storage.ArtifactStore, cfg *config.Config) *Executor {
	return &Executor{
		backend:   backend,
		limiter:   limiter,
		cookies:   store,
		artifacts: artifacts,
		cfg:       cfg,
	}
}

// Execute retrieves media for req, emitting progress through emit. Emitted
// percentages are non-decreasing; a successful transfer ends with exactly
// one finished event at 100%. Failures come back as classified errors so
// the retry controller can decide what to do with them.
func (e *Executor) Execute(ctx context.Context, req Request, emit func(domain.ProgressEvent)) (*domain.DownloadResult, error) {
	if req.Meta == nil {
		return nil, faults.New(faults.KindInvalidInput, "download request without resolved metadata")
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	opts := ytdlp.Options{UserAgent: e.cfg.UserAgent}
	if path, ok := e.cookies.Lookup(req.UserID); ok {
		opts.CookiePath = path
	}

	base := e.artifacts.AttemptBase(req.Meta.Title)
	template := e.artifacts.Path(base + ".%(ext)s")

	candidates := buildSelectorChain(req.Selector)

	sink := newProgressSink(emit)

	var lastErr error
	for i, candidate := range candidates {
		slog.Debug("attempting format",
			"expr", candidate.expr,
			"label", candidate.label,
			"attempt", i+1,
			"of", len(candidates),
		)

		err := e.backend.Download(ctx, req.Ref.URL(), candidate.expr, template, opts, sink.fromBackend)
		if err != nil {
			lastErr = err
			if isFormatRejection(err) && i < len(candidates)-1 {
				// Format substitution is a one-shot mechanism layered
				// under the retry budget, not part of it.
				slog.Info("format rejected, substituting",
					"rejected", candidate.expr, "next", candidates[i+1].expr)
				continue
			}
			return nil, err
		}

		path, size, locErr := e.artifacts.Locate(base, ".mp4")
		if locErr != nil {
			lastErr = faults.Wrap(faults.KindNotFound,
				"no artifact produced despite apparent success", locErr)
			if i < len(candidates)-1 {
				continue
			}
			return nil, lastErr
		}

		if size > e.cfg.MaxFileSize {
			// The artifact stays on disk for diagnostics; it just cannot
			// be delivered.
			return nil, faults.New(faults.KindResourceExceeded,
				fmt.Sprintf("artifact is %.1f MB, exceeds the %d MB limit (%s)",
					float64(size)/(1024*1024), e.cfg.MaxFileSize/(1024*1024), path))
		}

		sink.finish()

		result := &domain.DownloadResult{
			Success:         true,
			FilePath:        path,
			FileName:        storage.SanitizeTitle(req.Meta.Title) + filepath.Ext(path),
			FileSize:        size,
			Duration:        req.Meta.Duration,
			ObtainedQuality: candidate.label,
		}
		fillDimensions(result, req.Meta, req.Selector)

		slog.Info("download complete",
			"path", path,
			"size_mb", fmt.Sprintf("%.1f", result.FileSizeMB()),
			"quality", result.ObtainedQuality,
		)
		return result, nil
	}

	return nil, lastErr
}

type selectorCandidate struct {
	expr  string
	label string
}

// buildSelectorChain expands a format selector into the ordered list of
// selection expressions to try. For SelectorBest each pairs a video-only
// stream with best audio before degrading to combined streams; a specific
// id gets exactly one substitution to the known-good low-resolution format.
func buildSelectorChain(selector string) []selectorCandidate {
	if selector == "" || selector == SelectorBest {
		return []selectorCandidate{
			{expr: "bestvideo[height<=1080]+bestaudio", label: "1080p"},
			{expr: "bestvideo+bestaudio", label: "best"},
			{expr: "best", label: "best"},
			{expr: fallbackFormatID, label: "360p (fallback)"},
		}
	}

	chain := []selectorCandidate{
		{expr: selector + "+bestaudio/" + selector, label: selector},
	}
	if selector != fallbackFormatID {
		chain = append(chain, selectorCandidate{expr: fallbackFormatID, label: "360p (fallback)"})
	}
	return chain
}

// isFormatRejection detects the backend refusing a format combination, the
// only error that advances the fallback chain.
func isFormatRejection(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "requested format is not available") ||
		strings.Contains(msg, "requested format not available") ||
		strings.Contains(msg, "no video formats found")
}

// fillDimensions records the delivered dimensions from the resolved
// metadata, preferring the backend's own top-level width/height. A specific
// format selection overrides the height and scales the width at the source
// aspect ratio.
func fillDimensions(result *domain.DownloadResult, meta *domain.VideoMetadata, selector string) {
	result.Width, result.Height = meta.Width, meta.Height
	if result.Width <= 0 {
		result.Width = 1280
	}
	if result.Height <= 0 {
		result.Height = 720
	}
	result.HasAudio = true

	for _, f := range meta.Formats {
		if f.ID == selector && f.Height > 0 {
			result.Width = result.Width * f.Height / result.Height
			result.Height = f.Height
			result.HasAudio = f.HasAudio
			return
		}
	}
}

// progressSink converts backend progress into domain events while keeping
// the emitted percentage monotonic within one invocation.
type progressSink struct {
	emit        func(domain.ProgressEvent)
	lastPercent float64
}

func newProgressSink(emit func(domain.ProgressEvent)) *progressSink {
	return &progressSink{emit: emit}
}

func (s *progressSink) fromBackend(p ytdlp.Progress) {
	if s.emit == nil {
		return
	}
	// A fallback re-attempt restarts the backend's counter; never report
	// going backwards.
	if p.Percent < s.lastPercent {
		return
	}
	s.lastPercent = p.Percent

	s.emit(domain.ProgressEvent{
		Phase:      domain.PhaseDownloading,
		Percent:    p.Percent,
		Downloaded: p.Downloaded,
		Total:      p.Total,
		Speed:      p.Speed,
		ETA:        p.ETA,
	})
}

func (s *progressSink) finish() {
	if s.emit == nil {
		return
	}
	s.emit(domain.ProgressEvent{
		Phase:   domain.PhaseFinished,
		Percent: 100,
	})
}
