// Package service exposes the download orchestration boundary consumed by
// the messaging layer: resolve, download with progress, and batch mode.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ytfetch/ytfetch/internal/config"
	"github.com/ytfetch/ytfetch/internal/domain"
	"github.com/ytfetch/ytfetch/internal/downloader"
	"github.com/ytfetch/ytfetch/internal/faults"
	"github.com/ytfetch/ytfetch/internal/metrics"
	"github.com/ytfetch/ytfetch/internal/resolver"
	"github.com/ytfetch/ytfetch/internal/retry"
	"github.com/ytfetch/ytfetch/internal/session"
	"github.com/ytfetch/ytfetch/internal/storage"
	"github.com/ytfetch/ytfetch/internal/validation"
)

// progressBuffer sizes the event channel; events beyond it are dropped
// rather than blocking the transfer.
const progressBuffer = 64

// DownloadService wires the resolver, the executor and the retry controller
// into the interface the messaging layer consumes.
type DownloadService struct {
	resolver  *resolver.Resolver
	executor  *downloader.Executor
	sessions  *session.Store
	artifacts *storage.ArtifactStore
	cfg       *config.Config
}

// New creates a DownloadService.
func New(res *resolver.Resolver, exec *downloader.Executor, sessions *session.Store, artifacts *storage.ArtifactStore, cfg *config.Config) *DownloadService {
	return &DownloadService{
		resolver:  res,
		executor:  exec,
		sessions:  sessions,
		artifacts: artifacts,
		cfg:       cfg,
	}
}

// Resolve validates rawURL, fetches metadata for userID and opens a session
// holding it until the user picks a quality or the session expires.
func (s *DownloadService) Resolve(ctx context.Context, rawURL string, userID int64) (*domain.VideoMetadata, error) {
	metrics.ResolvesTotal.Inc()

	ref, err := validation.ParseReference(rawURL)
	if err != nil {
		metrics.ResolvesFailed.Inc()
		return nil, err
	}

	meta, err := s.resolver.Resolve(ctx, ref, userID)
	if err != nil {
		metrics.ResolvesFailed.Inc()
		return nil, err
	}

	s.sessions.Create(userID, ref, meta)
	return meta, nil
}

// Download runs one retried download sequence on a background goroutine and
// returns a progress stream plus a single-result channel. The progress
// channel is closed before the result is delivered; the result channel
// always delivers exactly one DownloadResult. Abandoning both channels is
// the caller-side cancellation model; canceling ctx tears down the
// in-flight transfer.
func (s *DownloadService) Download(ctx context.Context, rawURL, selector string, userID int64) (<-chan domain.ProgressEvent, <-chan *domain.DownloadResult) {
	events := make(chan domain.ProgressEvent, progressBuffer)
	results := make(chan *domain.DownloadResult, 1)

	go func() {
		defer close(results)

		result := s.downloadOnce(ctx, rawURL, selector, userID, events,
			retry.Config{MaxAttempts: s.cfg.DownloadAttempts, InitialDelay: s.cfg.DownloadInitialDelay})
		results <- result
	}()

	return events, results
}

// downloadOnce drives one full attempt sequence and always returns a
// structured result. It closes events when the transfer ends.
func (s *DownloadService) downloadOnce(ctx context.Context, rawURL, selector string, userID int64, events chan<- domain.ProgressEvent, budget retry.Config) *domain.DownloadResult {
	defer close(events)

	metrics.DownloadsTotal.Inc()
	start := time.Now()

	req, err := s.buildRequest(ctx, rawURL, selector, userID)
	if err != nil {
		metrics.DownloadsFailed.Inc()
		return failureResult(err)
	}

	emit := func(ev domain.ProgressEvent) {
		select {
		case events <- ev:
		default:
			// Receiver is lagging; dropping an informational event is
			// preferable to stalling the transfer.
		}
	}

	var result *domain.DownloadResult
	attempt := 0
	err = retry.Do(ctx, budget, func(ctx context.Context) error {
		if attempt > 0 {
			metrics.RetriesTotal.Inc()
		}
		attempt++

		var execErr error
		result, execErr = s.executor.Execute(ctx, *req, emit)
		return execErr
	})
	if err != nil {
		metrics.DownloadsFailed.Inc()
		slog.Error("download failed",
			"url", rawURL, "selector", selector, "attempts", attempt, "error", err)
		return failureResult(err)
	}

	metrics.DownloadsSuccess.Inc()
	metrics.DownloadDuration.Observe(time.Since(start).Seconds())
	metrics.DownloadBytes.Add(float64(result.FileSize))

	s.sessions.Delete(userID)
	return result
}

// buildRequest reuses session metadata when the URL matches the pending
// session, resolving fresh otherwise.
func (s *DownloadService) buildRequest(ctx context.Context, rawURL, selector string, userID int64) (*downloader.Request, error) {
	ref, err := validation.ParseReference(rawURL)
	if err != nil {
		return nil, err
	}

	var meta *domain.VideoMetadata
	if sess, ok := s.sessions.Get(userID); ok && sess.Ref.URL() == ref.URL() {
		meta = sess.Meta
	} else {
		meta, err = s.resolver.Resolve(ctx, ref, userID)
		if err != nil {
			return nil, err
		}
	}

	return &downloader.Request{
		Ref:      ref,
		Selector: selector,
		UserID:   userID,
		Meta:     meta,
	}, nil
}

// BatchItemResult pairs one batch URL with its outcome.
type BatchItemResult struct {
	URL    string                 `json:"url"`
	Result *domain.DownloadResult `json:"result"`
}

// DownloadBatch downloads urls concurrently with a bounded worker count and
// a reduced per-item retry budget so one bad batch cannot run unbounded.
// Progress is not streamed in batch mode.
func (s *DownloadService) DownloadBatch(ctx context.Context, urls []string, selector string, userID int64) []BatchItemResult {
	results := make([]BatchItemResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentDownloads)

	budget := retry.Config{MaxAttempts: s.cfg.BatchAttempts, InitialDelay: s.cfg.BatchInitialDelay}

	for i, url := range urls {
		g.Go(func() error {
			events := make(chan domain.ProgressEvent, progressBuffer)
			go drain(events)

			results[i] = BatchItemResult{
				URL:    url,
				Result: s.downloadOnce(ctx, url, selector, userID, events, budget),
			}

			// Space out items to stay polite to the upstream.
			if s.cfg.BatchInterItemDelay > 0 {
				select {
				case <-time.After(s.cfg.BatchInterItemDelay):
				case <-ctx.Done():
				}
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Cleanup deletes a delivered artifact.
func (s *DownloadService) Cleanup(path string) error {
	return s.artifacts.Remove(path)
}

func drain(events <-chan domain.ProgressEvent) {
	for range events {
	}
}

func failureResult(err error) *domain.DownloadResult {
	var fe *faults.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if fe.Suggestion != "" {
			msg = fmt.Sprintf("%s (%s)", fe.Message, fe.Suggestion)
		}
		return &domain.DownloadResult{
			Success: false,
			Kind:    fe.Kind.String(),
			Error:   fmt.Sprintf("%s: %s", fe.Kind, msg),
		}
	}
	kind, _ := faults.KindOf(err)
	return &domain.DownloadResult{
		Success: false,
		Kind:    kind.String(),
		Error:   err.Error(),
	}
}
