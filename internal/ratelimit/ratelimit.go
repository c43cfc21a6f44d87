// Package ratelimit spaces out calls to the source catalog.
// It wraps a single-token bucket so that consecutive Wait calls return at
// least one delay apart, reading time from an injectable Clock.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum delay between source API calls.
// The first Wait returns immediately.
//
// A Limiter is not safe for concurrent use; the migration pipeline is
// single-threaded.
type Limiter struct {
	limiter *rate.Limiter
	clock   Clock
	delay   time.Duration
	waits   int
}

// New creates a limiter with the given minimum delay.
// A delay of zero or less disables limiting. A nil clock means SystemClock.
func New(delay time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock{}
	}

	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
		delay:   delay,
	}
}

// Wait blocks until the delay since the previous Wait has elapsed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := l.clock.Now()
	r := l.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate limit reservation refused (delay %s)", l.delay)
	}

	l.waits++
	d := r.DelayFrom(now)
	if d <= 0 {
		return nil
	}

	if err := l.clock.Sleep(ctx, d); err != nil {
		r.CancelAt(l.clock.Now())
		return err
	}
	return nil
}

// Delay returns the configured minimum delay.
func (l *Limiter) Delay() time.Duration {
	return l.delay
}

// Enabled reports whether the limiter spaces calls at all.
func (l *Limiter) Enabled() bool {
	return l.delay > 0
}

// Waits returns how many reservations have been granted.
func (l *Limiter) Waits() int {
	return l.waits
}
