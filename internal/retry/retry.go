// Package retry wraps long operations against the extraction backend with
// bounded retry and exponential backoff. It is agnostic to what it wraps;
// call sites differ only in their attempt budget and initial delay.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ytfetch/ytfetch/internal/faults"
)

// Config parameterizes one guarded call.
type Config struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// InitialDelay is the backoff before the second attempt; each further
	// attempt doubles it.
	InitialDelay time.Duration
}

// Do invokes fn until it succeeds, fails fatally, or the attempt budget is
// exhausted. RateLimited and Transient failures are retried with delay
// InitialDelay * 2^i; every other kind returns immediately. An exhausted
// budget returns a failure stating the attempt count and wrapping the last
// error.
func Do(ctx context.Context, cfg Config, fn func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		kind, _ := faults.KindOf(lastErr)
		if !kind.Retryable() {
			return lastErr
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.InitialDelay << attempt
		slog.Warn("operation failed, backing off",
			"attempt", attempt+1,
			"max_attempts", cfg.MaxAttempts,
			"kind", kind.String(),
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return faults.Wrap(lastKind(lastErr),
		fmt.Sprintf("gave up after %d attempts", cfg.MaxAttempts), lastErr)
}

func lastKind(err error) faults.Kind {
	kind, ok := faults.KindOf(err)
	if !ok {
		return faults.KindTransient
	}
	return kind
}
