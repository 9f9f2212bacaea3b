// Package retry implements bounded retry with exponential backoff for
// adapter-internal use. Only read-style calls should be retried; writes are
// not idempotent under cancellation and are the caller's policy decision.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
)

// Config bounds the retry loop.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultConfig is the adapter-internal default: 3 attempts, 250ms initial
// delay doubling up to 5s, with jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Do runs fn up to cfg.MaxAttempts times, backing off between attempts.
// Only failures the taxonomy marks retryable (rate limited, unavailable) are
// retried; a venue-provided retry-after hint overrides the computed delay.
// When attempts are exhausted the last error is returned unchanged, so a
// persistent throttle still surfaces as a rate-limit error, never as success.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		apiErr, ok := exchange.AsError(lastErr)
		if !ok || !apiErr.Retryable() {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := backoff(cfg, attempt)
		if hint, ok := exchange.RetryAfterHint(lastErr); ok {
			delay = hint
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

func backoff(cfg Config, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if cfg.Jitter {
		delay += time.Duration(rand.Int63n(int64(delay)/5 + 1))
	}
	return delay
}
