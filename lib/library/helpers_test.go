// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"context"
	"testing"
	"time"
)

// waitFor polls the predicate until it holds or the deadline expires.
// Used for conditions that become true asynchronously after a
// condition-variable wake; the poll interval is real time, the
// simulated clock never advances on its own.
func waitFor(t *testing.T, what string, predicate func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// request runs RequestAdmission in a goroutine and returns a channel
// delivering its result.
func request(ctx context.Context, c *Coordinator, id AgentID) <-chan error {
	done := make(chan error, 1)
	go func() { done <- c.RequestAdmission(ctx, id) }()
	return done
}

// occupantIDs extracts the occupant IDs from a snapshot.
func occupantIDs(snapshot Snapshot) []AgentID {
	ids := make([]AgentID, 0, len(snapshot.Occupants))
	for _, occupant := range snapshot.Occupants {
		ids = append(ids, occupant.ID)
	}
	return ids
}

// occupying reports whether the agent currently occupies the library.
func occupying(c *Coordinator, id AgentID) bool {
	for _, occupant := range c.Snapshot().Occupants {
		if occupant.ID == id {
			return true
		}
	}
	return false
}

// waitingIn reports whether the agent is in the waiting set.
func waitingIn(c *Coordinator, id AgentID) bool {
	snapshot := c.Snapshot()
	for _, agent := range snapshot.WaitingReaders {
		if agent.ID == id {
			return true
		}
	}
	for _, agent := range snapshot.WaitingWriters {
		if agent.ID == id {
			return true
		}
	}
	return false
}
