// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"sort"
	"time"
)

// AgentStatus describes one agent in a snapshot.
type AgentStatus struct {
	ID AgentID

	// Elapsed is how long the agent has been in its current phase:
	// time waiting for queue members, time occupying for occupants.
	Elapsed time.Duration
}

// Snapshot is a consistent copy of the access state, taken under the
// coordinator's critical section. It never aliases live state, so the
// status reporter can format it without holding any lock. Two
// snapshots taken by separate calls may straddle admissions; consumers
// must not assume cross-call consistency.
type Snapshot struct {
	// Taken is the coordinator clock reading at capture.
	Taken time.Time

	// WaitingReaders and WaitingWriters list queued agents of each
	// kind, ordered by index.
	WaitingReaders []AgentStatus
	WaitingWriters []AgentStatus

	// Occupants lists agents currently in the library: writers first,
	// then readers, each ordered by index. Under the mutual-exclusion
	// invariant it holds either readers only or a single writer.
	Occupants []AgentStatus
}

// ReaderQueueLen returns the number of waiting readers.
func (s Snapshot) ReaderQueueLen() int { return len(s.WaitingReaders) }

// WriterQueueLen returns the number of waiting writers.
func (s Snapshot) WriterQueueLen() int { return len(s.WaitingWriters) }

// ReadersIn returns the number of readers occupying the library.
func (s Snapshot) ReadersIn() int {
	n := 0
	for _, occupant := range s.Occupants {
		if occupant.ID.Kind == Reader {
			n++
		}
	}
	return n
}

// WritersIn returns the number of writers occupying the library.
func (s Snapshot) WritersIn() int {
	n := 0
	for _, occupant := range s.Occupants {
		if occupant.ID.Kind == Writer {
			n++
		}
	}
	return n
}

// snapshotLocked builds a Snapshot. Caller holds the coordinator
// mutex.
func (s *accessState) snapshotLocked(now time.Time) Snapshot {
	snap := Snapshot{Taken: now}
	for _, record := range s.agents {
		switch record.phase {
		case PhaseWaiting:
			status := AgentStatus{ID: record.id, Elapsed: now.Sub(record.waitSince)}
			if record.id.Kind == Reader {
				snap.WaitingReaders = append(snap.WaitingReaders, status)
			} else {
				snap.WaitingWriters = append(snap.WaitingWriters, status)
			}
		case PhaseAdmitted:
			snap.Occupants = append(snap.Occupants, AgentStatus{
				ID:      record.id,
				Elapsed: now.Sub(record.admittedSince),
			})
		}
	}

	byIndex := func(list []AgentStatus) {
		sort.Slice(list, func(i, j int) bool { return list[i].ID.Index < list[j].ID.Index })
	}
	byIndex(snap.WaitingReaders)
	byIndex(snap.WaitingWriters)
	sort.Slice(snap.Occupants, func(i, j int) bool {
		a, b := snap.Occupants[i].ID, snap.Occupants[j].ID
		if a.Kind != b.Kind {
			return a.Kind == Writer
		}
		return a.Index < b.Index
	})
	return snap
}
