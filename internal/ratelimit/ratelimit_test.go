package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Power-of-two delays keep the token bucket arithmetic exact.
const testDelay = 2 * time.Second

func newTestLimiter(delay time.Duration) (*Limiter, *ManualClock) {
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(delay, clock), clock
}

func TestLimiter_FirstWaitImmediate(t *testing.T) {
	l, clock := newTestLimiter(testDelay)

	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, time.Duration(0), clock.Slept())
	assert.Equal(t, 1, l.Waits())
}

func TestLimiter_SequentialWaits(t *testing.T) {
	tests := []struct {
		name  string
		calls int
	}{
		{"two calls", 2},
		{"five calls", 5},
		{"twenty calls", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, clock := newTestLimiter(testDelay)
			start := clock.Now()

			for i := 0; i < tt.calls; i++ {
				require.NoError(t, l.Wait(context.Background()))
			}

			elapsed := clock.Now().Sub(start)
			assert.GreaterOrEqual(t, elapsed, time.Duration(tt.calls-1)*testDelay)
		})
	}
}

func TestLimiter_SpacingBetweenReturns(t *testing.T) {
	l, clock := newTestLimiter(testDelay)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	prev := clock.Now()

	for i := 0; i < 5; i++ {
		// Work between calls counts toward the delay.
		clock.Advance(500 * time.Millisecond)
		require.NoError(t, l.Wait(ctx))
		now := clock.Now()
		assert.GreaterOrEqual(t, now.Sub(prev), testDelay)
		prev = now
	}
}

func TestLimiter_NoSleepWhenDelayAlreadyElapsed(t *testing.T) {
	l, clock := newTestLimiter(testDelay)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	clock.Advance(4 * time.Second)
	require.NoError(t, l.Wait(ctx))

	assert.Equal(t, 0, clock.Sleeps())
}

func TestLimiter_ZeroDelayDisabled(t *testing.T) {
	l, clock := newTestLimiter(0)
	assert.False(t, l.Enabled())

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Equal(t, time.Duration(0), clock.Slept())
}

func TestLimiter_CanceledContext(t *testing.T) {
	l, _ := newTestLimiter(testDelay)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSystemClock_SleepRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SystemClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSystemClock_ShortSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, SystemClock{}.Sleep(context.Background(), 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
