package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/jmylchreest/sitebrief/internal/logger"
)

// RetryConfig bounds the retry loop of a RetryFetcher.
type RetryConfig struct {
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// Backoff is the fixed pause between attempts.
	Backoff time.Duration
}

// DefaultRetryConfig returns two attempts one second apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 2,
		Backoff:     time.Second,
	}
}

// RetryFetcher retries transient failures of another fetcher in-line.
// Only errors classified by IsTransient are retried.
type RetryFetcher struct {
	next   Fetcher
	config RetryConfig
}

// WithRetry wraps next with a bounded, synchronous retry loop.
func WithRetry(next Fetcher, cfg RetryConfig) *RetryFetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	return &RetryFetcher{next: next, config: cfg}
}

// Fetch calls the wrapped fetcher until it succeeds, fails permanently,
// or runs out of attempts.
func (f *RetryFetcher) Fetch(ctx context.Context, url string, opts Options) (Content, error) {
	var (
		content Content
		err     error
	)
	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		content, err = f.next.Fetch(ctx, url, opts)
		content.Attempts = attempt
		if err == nil {
			return content, nil
		}

		transient := IsTransient(err)
		logger.Debug("fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", f.config.MaxAttempts,
			"transient", transient,
			"error", err)

		if !transient || attempt == f.config.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if err := sleep(ctx, f.config.Backoff); err != nil {
			break
		}
	}
	return content, fmt.Errorf("after %d attempt(s): %w", content.Attempts, err)
}

// Close closes the wrapped fetcher.
func (f *RetryFetcher) Close() error {
	return f.next.Close()
}

// Type returns the fetcher type.
func (f *RetryFetcher) Type() string {
	return "retry(" + f.next.Type() + ")"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
