// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/libsim-project/libsim/lib/clock"
	"github.com/libsim-project/libsim/lib/library"
)

// StatusMode selects how the reporter consumes snapshots.
type StatusMode int

const (
	// StatusEvents delivers one snapshot per state transition, the
	// compact one-line-per-change output of the original simulator.
	StatusEvents StatusMode = iota

	// StatusPeriodic re-renders the full state once per
	// StatusInterval, for the verbose per-agent view.
	StatusPeriodic
)

// Params configures a simulation run. Counts of zero are valid for
// either kind.
type Params struct {
	Writers int
	Readers int

	// ReadSpan and WriteSpan bound the randomized occupancy duration
	// per kind; WindowSpan bounds the windowed arbiter's admission
	// window. All must be normalized (config guarantees this).
	ReadSpan   library.DurationSpan
	WriteSpan  library.DurationSpan
	WindowSpan library.DurationSpan

	Policy library.Policy

	// Tick paces the FIFO arbiter's head decisions. Zero means
	// library.DefaultTick.
	Tick time.Duration

	// OnStatus receives snapshots from the reporter goroutine, never
	// concurrently with itself. Nil disables status reporting.
	OnStatus func(library.Snapshot)

	// StatusMode and StatusInterval shape the reporter; the interval
	// defaults to one second and applies to StatusPeriodic only.
	StatusMode     StatusMode
	StatusInterval time.Duration

	// Seed makes occupancy and window draws reproducible. Zero seeds
	// from the clock.
	Seed uint64

	// Clock defaults to clock.Real(); tests inject clock.Fake.
	Clock clock.Clock

	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Simulation is one configured run. Create with New, drive with Run.
type Simulation struct {
	params Params
	clock  clock.Clock
	logger *slog.Logger
}

// New validates params and fills defaults.
func New(params Params) (*Simulation, error) {
	if params.Writers < 0 || params.Readers < 0 {
		return nil, fmt.Errorf("negative agent count (writers=%d readers=%d)", params.Writers, params.Readers)
	}
	switch params.Policy {
	case library.PolicyWindowed, library.PolicyFIFO:
	default:
		return nil, fmt.Errorf("unknown policy %q", params.Policy)
	}
	if params.Clock == nil {
		params.Clock = clock.Real()
	}
	if params.Logger == nil {
		params.Logger = slog.New(slog.DiscardHandler)
	}
	if params.StatusInterval <= 0 {
		params.StatusInterval = time.Second
	}
	if params.Seed == 0 {
		params.Seed = uint64(params.Clock.Now().UnixNano())
	}
	return &Simulation{
		params: params,
		clock:  params.Clock,
		logger: params.Logger,
	}, nil
}

// Run executes the simulation until ctx is cancelled, then joins every
// goroutine and returns. A clean shutdown returns nil; only unexpected
// agent or arbiter failures surface as errors.
func (s *Simulation) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	coordinator := library.NewCoordinator(s.clock, s.logger)

	var arbiter library.Arbiter
	switch s.params.Policy {
	case library.PolicyWindowed:
		rng := rand.New(rand.NewPCG(s.params.Seed, 0))
		arbiter = library.NewWindowedArbiter(coordinator, s.params.WindowSpan, rng)
	case library.PolicyFIFO:
		arbiter = library.NewFIFOArbiter(coordinator, s.params.Tick)
	}

	// Tie coordinator shutdown to context cancellation so agents
	// blocked on the condition variable wake up.
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		<-ctx.Done()
		coordinator.Close()
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return arbiter.Run(groupCtx) })
	group.Go(func() error { return s.runReporter(groupCtx, coordinator) })

	for index := range s.params.Readers {
		id := library.AgentID{Kind: library.Reader, Index: index}
		rng := rand.New(rand.NewPCG(s.params.Seed, agentStream(id)))
		group.Go(func() error { return s.runAgent(groupCtx, coordinator, id, s.params.ReadSpan, rng) })
	}
	for index := range s.params.Writers {
		id := library.AgentID{Kind: library.Writer, Index: index}
		rng := rand.New(rand.NewPCG(s.params.Seed, agentStream(id)))
		group.Go(func() error { return s.runAgent(groupCtx, coordinator, id, s.params.WriteSpan, rng) })
	}

	s.logger.Info("simulation started",
		"policy", string(s.params.Policy),
		"writers", s.params.Writers,
		"readers", s.params.Readers)

	err := group.Wait()
	cancel()
	<-watcherDone
	if err != nil && !isCancellation(err) {
		return err
	}
	return nil
}

// isCancellation reports whether err is the orderly-shutdown signal of
// a cancelled or expired context, which Run and the agents treat as a
// clean exit rather than a failure.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// runAgent is the shared reader/writer lifecycle: request admission,
// occupy for a bounded random duration, release, repeat. The deferred
// release inside the loop body is what lets the coordinator survive an
// agent cancelled mid-occupancy.
func (s *Simulation) runAgent(ctx context.Context, coordinator *library.Coordinator, id library.AgentID, hold library.DurationSpan, rng *rand.Rand) error {
	for {
		if err := coordinator.RequestAdmission(ctx, id); err != nil {
			if errors.Is(err, library.ErrClosed) || isCancellation(err) {
				return nil
			}
			return fmt.Errorf("%s requesting admission: %w", id, err)
		}

		stay := hold.Pick(rng)
		err := clock.SleepContext(ctx, s.clock, stay)
		coordinator.Release(id)
		if err != nil {
			return nil
		}
	}
}

// runReporter pumps snapshots to OnStatus: one initial snapshot (all
// agents queued), then per-transition or periodic depending on mode.
func (s *Simulation) runReporter(ctx context.Context, coordinator *library.Coordinator) error {
	if s.params.OnStatus == nil {
		<-ctx.Done()
		return nil
	}

	s.params.OnStatus(coordinator.Snapshot())

	switch s.params.StatusMode {
	case StatusPeriodic:
		ticker := s.clock.NewTicker(s.params.StatusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.params.OnStatus(coordinator.Snapshot())
			}
		}
	default:
		for {
			select {
			case <-ctx.Done():
				return nil
			case snapshot := <-coordinator.Events():
				s.params.OnStatus(snapshot)
			}
		}
	}
}

// agentStream derives a distinct PCG stream per agent so runs with the
// same seed are reproducible regardless of goroutine interleaving of
// the draws themselves.
func agentStream(id library.AgentID) uint64 {
	return uint64(id.Kind+1)<<32 | uint64(uint32(id.Index))
}
