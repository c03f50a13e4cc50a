// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"context"
	"time"
)

// Clock abstracts the time operations the simulator depends on.
// Production code injects Real(); tests inject Fake() and drive time
// explicitly with Advance.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. If d <= 0, the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on its C channel at
	// the given interval. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// Sleep pauses the calling goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Ticker wraps a periodic timer. Read ticks from C and call Stop when
// done. The C channel has capacity 1, matching time.Ticker: ticks are
// dropped, not queued, when the consumer falls behind.
type Ticker struct {
	// C delivers ticks.
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker. No more ticks are sent on C after Stop
// returns. Stop does not close C.
func (t *Ticker) Stop() { t.stopFunc() }

// SleepContext sleeps on c for duration d, or returns early with
// ctx.Err() when the context is cancelled first. Returns nil when the
// full duration elapsed.
func SleepContext(ctx context.Context, c Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}
