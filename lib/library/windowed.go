// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"context"
	"math/rand/v2"

	"github.com/libsim-project/libsim/lib/clock"
)

// WindowedArbiter implements the windowed-admission fairness policy.
// Readers admit themselves freely while the reader gate is open. The
// arbiter sleeps for a randomized window; if at least one writer is
// waiting when it wakes, it closes the gate, selects the
// longest-waiting writer for an exclusive turn, and reopens the gate
// once that writer has occupied and released.
//
// Starvation freedom: once any writer waits, the oldest one is
// selected within a single window; readers resume at latest one writer
// occupancy after the gate closes, because the gate reopens
// unconditionally when the writer vacates.
type WindowedArbiter struct {
	c      *Coordinator
	window DurationSpan
	rng    *rand.Rand

	// Guarded by c.mu.
	gate          bool    // reader admissions suspended
	selected      AgentID // writer granted the current turn
	selectedValid bool
}

// NewWindowedArbiter attaches a windowed-admission policy to the
// coordinator. The window span must be normalized; rng is used only
// from the Run goroutine.
func NewWindowedArbiter(c *Coordinator, window DurationSpan, rng *rand.Rand) *WindowedArbiter {
	a := &WindowedArbiter{c: c, window: window, rng: rng}
	c.attach(a)
	return a
}

// Run repeats the window cycle: sleep a randomized window, close the
// gate and select the oldest waiting writer, wait for that writer's
// turn to complete, reopen. When no writer is waiting at window end the
// cycle is a no-op: gating with nobody to eventually reopen the gate
// would starve readers forever.
func (a *WindowedArbiter) Run(ctx context.Context) error {
	c := a.c
	for {
		if err := clock.SleepContext(ctx, c.clock, a.window.Pick(a.rng)); err != nil {
			return nil
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil
		}
		if c.state.writersIn == 0 {
			if id, ok := c.state.oldestWaitingWriter(); ok {
				a.gate = true
				a.selected = id
				a.selectedValid = true
				c.logger.Debug("window expired, writer turn",
					"writer", id.String(),
					"waiting_writers", c.state.waitingWriters())
				c.cond.Broadcast()

				// Wait out the writer's whole turn. released()
				// reopens the gate when the writer vacates.
				for a.gate && !c.closed {
					c.cond.Wait()
				}
			}
		}
		c.mu.Unlock()
	}
}

func (a *WindowedArbiter) admit(ctx context.Context, id AgentID) error {
	c := a.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if id.Kind == Reader {
		// Readers proceed immediately unless the gate is closed.
		// Readers admitted before the gate closed are unaffected;
		// the gate only blocks new admissions.
		for !c.closed && (a.gate || c.state.writersIn > 0) {
			c.cond.Wait()
		}
		if c.closed {
			return ErrClosed
		}
		c.state.admit(id, c.clock.Now())
		c.publishLocked()
		c.cond.Broadcast()
		return nil
	}

	// A writer waits for its selection, then for the readers that were
	// already inside when the gate closed to drain out.
	for !c.closed && !(a.selectedValid && a.selected == id) {
		c.cond.Wait()
	}
	if c.closed {
		return ErrClosed
	}
	for !c.closed && c.state.readersIn > 0 {
		c.cond.Wait()
	}
	if c.closed {
		return ErrClosed
	}
	a.selectedValid = false
	c.state.admit(id, c.clock.Now())
	c.publishLocked()
	c.cond.Broadcast()
	return nil
}

// released reopens the reader gate when the writer holding the current
// turn vacates. Under this policy at most one writer is ever in
// flight, so any writer release ends the turn.
func (a *WindowedArbiter) released(id AgentID) {
	if id.Kind == Writer && a.gate {
		a.gate = false
		a.selectedValid = false
	}
}
