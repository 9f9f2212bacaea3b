// Package ratelimit provides client-side request pacing for exchange
// adapters. Staying under a venue's published budget avoids most throttle
// responses; it does not replace handling them when they happen.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces requests against one venue budget.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter builds a limiter for requestsPerMinute with a burst of 10% of
// the per-minute budget (minimum 1).
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the budget allows another request or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name identifies the budget, for diagnostics.
func (l *Limiter) Name() string {
	return l.name
}
