// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"context"
	"time"

	"github.com/libsim-project/libsim/lib/clock"
)

// DefaultTick is the FIFO arbiter's poll interval when none is
// configured.
const DefaultTick = time.Second

// FIFOArbiter implements strict arrival-order fairness. Both kinds
// share one queue; each tick the arbiter inspects only the head and
// admits it once compatible with current occupancy: a reader needs no
// writer inside, a writer needs the library empty.
//
// Exactly one head decision is made per tick, so consecutive readers
// are admitted on successive ticks rather than batched. That costs
// throughput against the windowed policy but buys a hard ordering
// guarantee: every agent reaches the head in O(queue length) served
// turns.
//
// The arbiter keeps no state of its own; every decision is re-derived
// from the access state.
type FIFOArbiter struct {
	c    *Coordinator
	tick time.Duration
}

// NewFIFOArbiter attaches a FIFO-arbitration policy to the
// coordinator. A non-positive tick falls back to DefaultTick.
func NewFIFOArbiter(c *Coordinator, tick time.Duration) *FIFOArbiter {
	if tick <= 0 {
		tick = DefaultTick
	}
	a := &FIFOArbiter{c: c, tick: tick}
	c.attach(a)
	return a
}

// Run serves the queue head whenever it becomes compatible, pacing
// decisions one tick apart. An empty queue or an incompatible head is
// waited out on the condition variable, not spun on.
func (a *FIFOArbiter) Run(ctx context.Context) error {
	c := a.c
	for {
		c.mu.Lock()
		for !c.closed {
			id, ok := c.state.queueHead()
			if ok && a.headCompatible(id) {
				c.state.admit(id, c.clock.Now())
				c.logger.Debug("queue head admitted", "agent", id.String())
				c.publishLocked()
				c.cond.Broadcast()
				break
			}
			// Queue empty or head blocked by occupancy; a release or
			// enqueue will wake us.
			c.cond.Wait()
		}
		if c.closed {
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		if err := clock.SleepContext(ctx, c.clock, a.tick); err != nil {
			return nil
		}
	}
}

// headCompatible reports whether the head agent may enter under the
// mutual-exclusion invariant. Caller holds c.mu.
func (a *FIFOArbiter) headCompatible(id AgentID) bool {
	if id.Kind == Reader {
		return a.c.state.writersIn == 0
	}
	return a.c.state.writersIn == 0 && a.c.state.readersIn == 0
}

// admit blocks until Run has flipped the agent to admitted.
func (a *FIFOArbiter) admit(ctx context.Context, id AgentID) error {
	c := a.c
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.closed {
		if phase, ok := c.state.phaseOf(id); ok && phase == PhaseAdmitted {
			return nil
		}
		c.cond.Wait()
	}
	return ErrClosed
}

// released is a no-op: the policy is stateless beyond the access
// state, and Release already broadcasts.
func (a *FIFOArbiter) released(AgentID) {}
