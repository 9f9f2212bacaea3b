package exchange

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestError_MessageFormat tests that rendered errors carry venue and code context
func TestError_MessageFormat(t *testing.T) {
	err := &Error{
		Kind:       KindInvalidRequest,
		Exchange:   "binance",
		Message:    "unknown symbol",
		NativeCode: "-1121",
	}

	assert.Equal(t, "binance: unknown symbol (code -1121)", err.Error())
}

// TestError_Unwrap tests that the underlying cause stays reachable
func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(KindUnavailable, "bybit", "request failed", cause)

	assert.ErrorIs(t, err, cause)
}

// TestKindPredicates tests the per-kind classification helpers
func TestKindPredicates(t *testing.T) {
	cases := []struct {
		kind  Kind
		check func(error) bool
	}{
		{KindConfiguration, IsConfiguration},
		{KindAuthentication, IsAuthentication},
		{KindInvalidRequest, IsInvalidRequest},
		{KindInsufficientFunds, IsInsufficientFunds},
		{KindRateLimited, IsRateLimited},
		{KindNotSupported, IsNotSupported},
		{KindUnavailable, IsUnavailable},
	}

	for _, tc := range cases {
		err := NewError(tc.kind, "test", "boom")
		assert.True(t, tc.check(err), string(tc.kind))

		for _, other := range cases {
			if other.kind != tc.kind {
				assert.False(t, other.check(err), "%s matched %s", tc.kind, other.kind)
			}
		}
	}
}

// TestKindPredicates_WrappedChain tests classification through fmt.Errorf wrapping
func TestKindPredicates_WrappedChain(t *testing.T) {
	inner := NewError(KindRateLimited, "binance", "throttled")
	outer := fmt.Errorf("placing order: %w", inner)

	assert.True(t, IsRateLimited(outer))
	assert.Equal(t, KindRateLimited, KindOf(outer))
}

// TestKindOf_ForeignError tests that non-taxonomy errors report unknown
func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("something else")))
}

// TestRetryAfterHint tests extraction of the venue throttle hint
func TestRetryAfterHint(t *testing.T) {
	err := &Error{Kind: KindRateLimited, Exchange: "binance", Message: "throttled", RetryAfter: 3 * time.Second}

	hint, ok := RetryAfterHint(err)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, hint)

	_, ok = RetryAfterHint(NewError(KindRateLimited, "binance", "throttled"))
	assert.False(t, ok, "no hint when venue gave none")
}

// TestError_Retryable tests which kinds are worth retrying
func TestError_Retryable(t *testing.T) {
	assert.True(t, NewError(KindRateLimited, "x", "m").Retryable())
	assert.True(t, NewError(KindUnavailable, "x", "m").Retryable())
	assert.False(t, NewError(KindAuthentication, "x", "m").Retryable())
	assert.False(t, NewError(KindInvalidRequest, "x", "m").Retryable())
	assert.False(t, NewError(KindInsufficientFunds, "x", "m").Retryable())
}
