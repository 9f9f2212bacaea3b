package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// TestDo_SucceedsFirstAttempt tests the no-retry happy path
func TestDo_SucceedsFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

// TestDo_RetriesRetryableKinds tests that unavailable errors are retried
func TestDo_RetriesRetryableKinds(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return exchange.NewError(exchange.KindUnavailable, "test", "503")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

// TestDo_DoesNotRetryNonRetryable tests that invalid requests fail immediately
func TestDo_DoesNotRetryNonRetryable(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return exchange.NewError(exchange.KindInvalidRequest, "test", "bad symbol")
	})

	assert.True(t, exchange.IsInvalidRequest(err))
	assert.Equal(t, 1, calls)
}

// TestDo_DoesNotRetryForeignErrors tests that unclassified errors are not retried
func TestDo_DoesNotRetryForeignErrors(t *testing.T) {
	var calls int
	sentinel := errors.New("plain failure")
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

// TestDo_PersistentThrottleSurvives tests that exhausted retries keep the rate-limit kind
func TestDo_PersistentThrottleSurvives(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return exchange.NewError(exchange.KindRateLimited, "test", "throttled")
	})

	assert.True(t, exchange.IsRateLimited(err), "persistent throttling must not be masked")
	assert.Equal(t, 3, calls)
}

// TestDo_HonorsRetryAfterHint tests that the venue hint overrides the backoff
func TestDo_HonorsRetryAfterHint(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 2

	start := time.Now()
	var calls int
	_ = Do(context.Background(), cfg, func() error {
		calls++
		return &exchange.Error{
			Kind:       exchange.KindRateLimited,
			Exchange:   "test",
			Message:    "throttled",
			RetryAfter: 30 * time.Millisecond,
		}
	})

	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

// TestDo_ContextCancellationAborts tests that a cancelled context stops the loop
func TestDo_ContextCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	err := Do(ctx, Config{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 2}, func() error {
		calls++
		cancel()
		return exchange.NewError(exchange.KindUnavailable, "test", "down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
