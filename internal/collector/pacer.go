package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer throttles requests against the trends provider. The collector
// waits on it after every keyword, success or failure; it is the sole
// backpressure mechanism against the provider's rate limits.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer enforces a fixed delay between events.
type FixedPacer struct {
	lim *rate.Limiter
}

// NewFixedPacer creates a pacer that blocks for the full delay on every
// Wait. The limiter's initial token is drained so the first Wait already
// blocks; N keywords therefore take at least N*delay of wall time.
func NewFixedPacer(delay time.Duration) *FixedPacer {
	lim := rate.NewLimiter(rate.Every(delay), 1)
	lim.Allow()
	return &FixedPacer{lim: lim}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}

// NopPacer never blocks. Used in tests.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
