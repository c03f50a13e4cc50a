// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"context"
	"testing"
	"time"

	"github.com/libsim-project/libsim/lib/clock"
)

func newFIFO(t *testing.T, tick time.Duration) (*Coordinator, *clock.FakeClock, func(), func()) {
	t.Helper()
	fake := clock.Fake(testEpoch)
	coordinator := NewCoordinator(fake, nil)
	arbiter := NewFIFOArbiter(coordinator, tick)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	started := false
	start := func() {
		started = true
		go func() { runDone <- arbiter.Run(ctx) }()
	}
	stop := func() {
		cancel()
		coordinator.Close()
		if !started {
			return
		}
		select {
		case <-runDone:
		case <-time.After(5 * time.Second):
			t.Error("arbiter did not stop")
		}
	}
	return coordinator, fake, start, stop
}

// TestFIFOConcreteScenario walks the canonical sequence: queue
// [R0, R1, W0] with a one-second tick. R0 enters immediately, R1 joins
// it one tick later while R0 still occupies (readers need only
// writer-free occupancy), and W0 enters only after both readers have
// vacated.
func TestFIFOConcreteScenario(t *testing.T) {
	coordinator, fake, start, stop := newFIFO(t, time.Second)
	defer stop()
	ctx := context.Background()

	r0 := AgentID{Kind: Reader, Index: 0}
	r1 := AgentID{Kind: Reader, Index: 1}
	w0 := AgentID{Kind: Writer, Index: 0}

	// Build the arrival order before the arbiter starts serving.
	r0Done := request(ctx, coordinator, r0)
	waitFor(t, "R0 enqueued", func() bool { return waitingIn(coordinator, r0) })
	r1Done := request(ctx, coordinator, r1)
	waitFor(t, "R1 enqueued", func() bool { return waitingIn(coordinator, r1) })
	w0Done := request(ctx, coordinator, w0)
	waitFor(t, "W0 enqueued", func() bool { return waitingIn(coordinator, w0) })

	start()

	// Head R0 is compatible straight away.
	select {
	case err := <-r0Done:
		if err != nil {
			t.Fatalf("R0 admission: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("R0 not admitted")
	}

	// One tick later R1 is admitted while R0 still occupies.
	fake.WaitForWaiters(1)
	fake.Advance(time.Second)
	select {
	case err := <-r1Done:
		if err != nil {
			t.Fatalf("R1 admission: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("R1 not admitted on the next tick")
	}
	if !occupying(coordinator, r0) || !occupying(coordinator, r1) {
		t.Fatalf("occupants = %v, want both readers", occupantIDs(coordinator.Snapshot()))
	}

	// W0 at the head needs an empty library.
	fake.WaitForWaiters(1)
	fake.Advance(time.Second)
	coordinator.Release(r0)
	select {
	case <-w0Done:
		t.Fatal("W0 admitted while R1 still occupies")
	case <-time.After(50 * time.Millisecond):
	}

	coordinator.Release(r1)
	select {
	case err := <-w0Done:
		if err != nil {
			t.Fatalf("W0 admission: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("W0 not admitted after the library emptied")
	}
	if got := occupantIDs(coordinator.Snapshot()); len(got) != 1 || got[0] != w0 {
		t.Fatalf("occupants = %v, want [%v]", got, w0)
	}
}

// TestFIFOOrderAcrossKinds checks the ordering guarantee: an agent
// never overtakes one that enqueued before it, regardless of kind.
func TestFIFOOrderAcrossKinds(t *testing.T) {
	coordinator, fake, start, stop := newFIFO(t, time.Second)
	defer stop()
	ctx := context.Background()

	w0 := AgentID{Kind: Writer, Index: 0}
	r0 := AgentID{Kind: Reader, Index: 0}

	// Writer enqueues first, reader second. Even though the reader is
	// compatible with the empty library, the writer at the head is
	// served first.
	w0Done := request(ctx, coordinator, w0)
	waitFor(t, "W0 enqueued", func() bool { return waitingIn(coordinator, w0) })
	r0Done := request(ctx, coordinator, r0)
	waitFor(t, "R0 enqueued", func() bool { return waitingIn(coordinator, r0) })

	start()

	select {
	case err := <-w0Done:
		if err != nil {
			t.Fatalf("W0 admission: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("head writer not admitted")
	}
	select {
	case <-r0Done:
		t.Fatal("reader overtook the writer occupying the library")
	case <-time.After(50 * time.Millisecond):
	}

	coordinator.Release(w0)
	fake.WaitForWaiters(1)
	fake.Advance(time.Second)
	select {
	case err := <-r0Done:
		if err != nil {
			t.Fatalf("R0 admission: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reader not admitted after the writer vacated")
	}
}

func TestFIFODefaultTick(t *testing.T) {
	coordinator := NewCoordinator(clock.Fake(testEpoch), nil)
	arbiter := NewFIFOArbiter(coordinator, 0)
	if arbiter.tick != DefaultTick {
		t.Fatalf("tick = %v, want %v", arbiter.tick, DefaultTick)
	}
}
