// Package ratelimit provides the rate gate that paces upstream API calls.
//
// The gate is injected into the fetch loop so tests can substitute a no-op
// and so parallel fetchers share a single thread-safe budget instead of
// sleeping per call.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates the start of each upstream request. Wait blocks until the
// caller may proceed or the context is done. Implementations must be safe
// for concurrent use.
type Limiter interface {
	Wait(ctx context.Context) error
}

// gate wraps a token bucket so that requests are spaced by a minimum
// interval regardless of how many goroutines share it.
type gate struct {
	bucket *rate.Limiter
}

// NewIntervalGate returns a Limiter allowing one request per interval with
// no bursting. An interval of zero or less yields a no-op gate.
func NewIntervalGate(interval time.Duration) Limiter {
	if interval <= 0 {
		return NewNopLimiter()
	}
	return &gate{bucket: rate.NewLimiter(rate.Every(interval), 1)}
}

func (g *gate) Wait(ctx context.Context) error {
	return g.bucket.Wait(ctx)
}

// nopLimiter never blocks. Used in tests and for providers without a rate
// limit.
type nopLimiter struct{}

// NewNopLimiter returns a Limiter that admits every request immediately.
func NewNopLimiter() Limiter {
	return nopLimiter{}
}

func (nopLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}
