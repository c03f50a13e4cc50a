// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package simulation

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/libsim-project/libsim/lib/library"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// collector accumulates reporter snapshots; OnStatus is never called
// concurrently with itself, but the test goroutine reads while the
// reporter writes.
type collector struct {
	mu        sync.Mutex
	snapshots []library.Snapshot
}

func (c *collector) add(snapshot library.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, snapshot)
}

func (c *collector) all() []library.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]library.Snapshot(nil), c.snapshots...)
}

// millis builds a span in milliseconds so stress tests run fast.
func millis(minimum, maximum int) library.DurationSpan {
	return library.DurationSpan{
		Min: time.Duration(minimum) * time.Millisecond,
		Max: time.Duration(maximum) * time.Millisecond,
	}
}

// runStress runs a short real-time simulation and returns every
// snapshot the reporter saw.
func runStress(t *testing.T, policy library.Policy) []library.Snapshot {
	t.Helper()

	statuses := &collector{}
	sim, err := New(Params{
		Writers:    2,
		Readers:    5,
		ReadSpan:   millis(0, 3),
		WriteSpan:  millis(1, 3),
		WindowSpan: millis(5, 10),
		Policy:     policy,
		Tick:       time.Millisecond,
		OnStatus:   statuses.add,
		StatusMode: StatusEvents,
		Seed:       1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	if err := sim.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snapshots := statuses.all()
	if len(snapshots) == 0 {
		t.Fatal("no status snapshots collected")
	}
	return snapshots
}

// assertMutualExclusion checks invariant I1 on every snapshot: at most
// one writer inside, and never together with readers.
func assertMutualExclusion(t *testing.T, snapshots []library.Snapshot) {
	t.Helper()
	for i, snapshot := range snapshots {
		writers := snapshot.WritersIn()
		readers := snapshot.ReadersIn()
		if writers > 1 {
			t.Fatalf("snapshot %d: %d writers inside", i, writers)
		}
		if writers == 1 && readers > 0 {
			t.Fatalf("snapshot %d: writer and %d readers inside together", i, readers)
		}
	}
}

// assertConservation checks that every agent the coordinator tracks is
// in exactly one of the waiting and occupant sets: the combined count
// never exceeds the configured population, and the full population is
// observed together at least once. Counts below the total are expected
// during startup (agents still enqueuing) and shutdown (agents gone).
func assertConservation(t *testing.T, snapshots []library.Snapshot, total int) {
	t.Helper()
	sawAll := false
	for i, snapshot := range snapshots {
		count := snapshot.ReaderQueueLen() + snapshot.WriterQueueLen() + len(snapshot.Occupants)
		if count > total {
			t.Fatalf("snapshot %d: %d agents tracked, configured %d", i, count, total)
		}
		if count == total {
			sawAll = true
		}
	}
	if !sawAll {
		t.Fatalf("full population of %d never observed in one snapshot", total)
	}
}

func admittedWriters(snapshots []library.Snapshot) map[int]bool {
	admitted := make(map[int]bool)
	for _, snapshot := range snapshots {
		for _, occupant := range snapshot.Occupants {
			if occupant.ID.Kind == library.Writer {
				admitted[occupant.ID.Index] = true
			}
		}
	}
	return admitted
}

func TestWindowedStress(t *testing.T) {
	snapshots := runStress(t, library.PolicyWindowed)
	assertMutualExclusion(t, snapshots)
	assertConservation(t, snapshots, 7)

	// Starvation freedom: with ~40 windows in the run and the oldest
	// writer served each window, both writers must get a turn.
	admitted := admittedWriters(snapshots)
	for index := range 2 {
		if !admitted[index] {
			t.Fatalf("writer %d never admitted; admitted set %v", index, admitted)
		}
	}
}

func TestFIFOStress(t *testing.T) {
	snapshots := runStress(t, library.PolicyFIFO)
	assertMutualExclusion(t, snapshots)
	assertConservation(t, snapshots, 7)

	admitted := admittedWriters(snapshots)
	for index := range 2 {
		if !admitted[index] {
			t.Fatalf("writer %d never admitted; admitted set %v", index, admitted)
		}
	}
}

func TestRunStopsCleanlyWithNoAgents(t *testing.T) {
	sim, err := New(Params{Policy: library.PolicyWindowed, WindowSpan: millis(5, 10)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := sim.Run(ctx); err != nil {
		t.Fatalf("Run with no agents: %v", err)
	}
}

// TestRunExpiredDeadlineShutsDownCleanly covers the deadline flavor of
// cancellation: agents that observe context.DeadlineExceeded while
// requesting admission exit cleanly, the same as an explicit cancel.
func TestRunExpiredDeadlineShutsDownCleanly(t *testing.T) {
	sim, err := New(Params{
		Writers:   1,
		Readers:   1,
		ReadSpan:  millis(1, 2),
		WriteSpan: millis(1, 2),
		Policy:    library.PolicyFIFO,
		Tick:      time.Millisecond,
		Seed:      1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if err := sim.Run(ctx); err != nil {
		t.Fatalf("Run under expired deadline: %v", err)
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	if _, err := New(Params{Writers: -1, Policy: library.PolicyFIFO}); err == nil {
		t.Fatal("negative writer count accepted")
	}
	if _, err := New(Params{Policy: "round-robin"}); err == nil {
		t.Fatal("unknown policy accepted")
	}
}

func TestPeriodicReporter(t *testing.T) {
	statuses := &collector{}
	sim, err := New(Params{
		Writers:        1,
		Readers:        2,
		ReadSpan:       millis(0, 2),
		WriteSpan:      millis(1, 2),
		Policy:         library.PolicyFIFO,
		Tick:           time.Millisecond,
		OnStatus:       statuses.add,
		StatusMode:     StatusPeriodic,
		StatusInterval: 10 * time.Millisecond,
		Seed:           1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	if err := sim.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One initial snapshot plus roughly one per interval; exact count
	// depends on scheduling, presence of several is enough.
	if got := len(statuses.all()); got < 3 {
		t.Fatalf("periodic snapshots = %d, want several", got)
	}
}
