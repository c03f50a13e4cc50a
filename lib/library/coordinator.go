// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/libsim-project/libsim/lib/clock"
)

// ErrClosed is returned from blocked admission calls after the
// coordinator has been closed.
var ErrClosed = errors.New("library: coordinator closed")

// Arbiter is the fairness policy deciding when a waiting agent is
// admitted. Implementations live in this package; the interface is
// sealed by its unexported methods.
type Arbiter interface {
	// Run drives the policy's background decision loop until the
	// context is cancelled or the coordinator is closed. It must be
	// running for admissions to make progress.
	Run(ctx context.Context) error

	// admit blocks the calling agent until the policy admits it.
	// Called with the coordinator's mutex NOT held.
	admit(ctx context.Context, id AgentID) error

	// released is a hook invoked under the coordinator's mutex when
	// an admitted agent vacates, before waiters are woken.
	released(id AgentID)
}

// Coordinator binds the access state to an arbiter policy and owns the
// synchronization primitives: one mutex spanning all shared state and
// one condition variable every predicate waits on. Agents interact
// only through RequestAdmission, Release, and Snapshot.
type Coordinator struct {
	mu   sync.Mutex
	cond *sync.Cond

	state   *accessState
	arbiter Arbiter
	clock   clock.Clock
	logger  *slog.Logger
	events  chan Snapshot

	closed bool
}

// NewCoordinator returns a coordinator with no policy attached. Attach
// exactly one arbiter with NewWindowedArbiter or NewFIFOArbiter before
// any agent calls RequestAdmission.
func NewCoordinator(clk clock.Clock, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Coordinator{
		state:  newAccessState(),
		clock:  clk,
		logger: logger,
		events: make(chan Snapshot, statusBuffer),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// statusBuffer bounds the per-transition snapshot stream. A slow
// status consumer drops snapshots rather than stalling admissions.
const statusBuffer = 64

// Events streams a snapshot for every state transition (admission or
// release). Snapshots are captured inside the transition's critical
// section, so each one is internally consistent; delivery is
// best-effort and lossy under backpressure. The channel is never
// closed.
func (c *Coordinator) Events() <-chan Snapshot {
	return c.events
}

// publishLocked captures and offers a snapshot. Caller holds c.mu; the
// send never blocks.
func (c *Coordinator) publishLocked() {
	select {
	case c.events <- c.state.snapshotLocked(c.clock.Now()):
	default:
	}
}

// RequestAdmission enqueues the agent (unless its release already
// re-enqueued it) and blocks until the arbiter admits it. On return
// with a nil error the agent occupies the library and must eventually
// call Release. Returns ErrClosed after Close, or the context error
// when ctx was cancelled before the call began.
func (c *Coordinator) RequestAdmission(ctx context.Context, id AgentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.arbiter == nil {
		c.mu.Unlock()
		panic("library: RequestAdmission with no arbiter attached")
	}
	if _, known := c.state.phaseOf(id); !known {
		c.state.enqueue(id, c.clock.Now())
		c.cond.Broadcast()
	}
	arbiter := c.arbiter
	c.mu.Unlock()

	if err := arbiter.admit(ctx, id); err != nil {
		return err
	}
	c.logger.Debug("admitted", "agent", id.String())
	return nil
}

// Release vacates an admitted agent and atomically re-enqueues it, so
// waiting-set membership is continuous across the demand loop. After
// Close the re-enqueue is skipped: the agent simply vanishes, which
// the invariants tolerate. Calling Release for an agent that is not
// admitted is a no-op, so a cancelled agent's deferred release is
// always safe.
func (c *Coordinator) Release(id AgentID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	phase, known := c.state.phaseOf(id)
	if !known || phase != PhaseAdmitted {
		return
	}
	c.state.vacate(id)
	if c.arbiter != nil {
		c.arbiter.released(id)
	}
	if !c.closed {
		c.state.enqueue(id, c.clock.Now())
	}
	c.logger.Debug("released", "agent", id.String())
	c.publishLocked()
	c.cond.Broadcast()
}

// Snapshot returns a consistent copy of the current access state for
// display.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.snapshotLocked(c.clock.Now())
}

// Close wakes every blocked admission and arbiter wait; they return
// ErrClosed (agents) or nil (arbiter). Idempotent. Close does not wait
// for agents to observe it; callers join their goroutines separately.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cond.Broadcast()
}

// attach registers the arbiter. Each coordinator takes exactly one.
func (c *Coordinator) attach(a Arbiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.arbiter != nil {
		panic("library: coordinator already has an arbiter")
	}
	c.arbiter = a
}
