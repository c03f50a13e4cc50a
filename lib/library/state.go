// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import "time"

// agentRecord tracks one agent's current phase and the timestamp it
// entered that phase.
type agentRecord struct {
	id            AgentID
	phase         Phase
	waitSince     time.Time
	admittedSince time.Time
}

// accessState is the single source of truth for who occupies the
// library and who is waiting. Every method must be called with the
// coordinator's mutex held; nothing here locks.
//
// The arrival queue is maintained for every policy. The windowed
// arbiter ignores it and scans wait timestamps instead; the FIFO
// arbiter serves it strictly head-first.
type accessState struct {
	// agents holds the record for every agent currently waiting or
	// admitted. An agent between release and its next enqueue (only
	// possible during shutdown) has no record.
	agents map[AgentID]*agentRecord

	// queue holds waiting agents in arrival order, both kinds mixed.
	queue []AgentID

	readersIn int
	writersIn int
}

func newAccessState() *accessState {
	return &accessState{agents: make(map[AgentID]*agentRecord)}
}

// enqueue adds an agent to the waiting set and the tail of the arrival
// queue. The agent must not already have a record.
func (s *accessState) enqueue(id AgentID, now time.Time) {
	if _, exists := s.agents[id]; exists {
		panic("library: agent enqueued twice: " + id.String())
	}
	s.agents[id] = &agentRecord{id: id, phase: PhaseWaiting, waitSince: now}
	s.queue = append(s.queue, id)
}

// admit moves a waiting agent into occupancy: removes it from the
// arrival queue, flips its phase, and bumps the occupancy counter for
// its kind.
func (s *accessState) admit(id AgentID, now time.Time) {
	record, ok := s.agents[id]
	if !ok || record.phase != PhaseWaiting {
		panic("library: admitting agent that is not waiting: " + id.String())
	}
	record.phase = PhaseAdmitted
	record.admittedSince = now
	s.removeFromQueue(id)
	switch id.Kind {
	case Reader:
		s.readersIn++
	case Writer:
		s.writersIn++
	}
}

// vacate removes an admitted agent from occupancy entirely. The caller
// re-enqueues it when the demand loop continues.
func (s *accessState) vacate(id AgentID) {
	record, ok := s.agents[id]
	if !ok || record.phase != PhaseAdmitted {
		panic("library: vacating agent that is not admitted: " + id.String())
	}
	delete(s.agents, id)
	switch id.Kind {
	case Reader:
		s.readersIn--
	case Writer:
		s.writersIn--
	}
}

// phase reports an agent's current phase. ok is false when the agent
// has no record.
func (s *accessState) phaseOf(id AgentID) (Phase, bool) {
	record, found := s.agents[id]
	if !found {
		return 0, false
	}
	return record.phase, true
}

// queueHead returns the longest-enqueued waiting agent across both
// kinds.
func (s *accessState) queueHead() (AgentID, bool) {
	if len(s.queue) == 0 {
		return AgentID{}, false
	}
	return s.queue[0], true
}

// oldestWaitingWriter returns the waiting writer with the earliest
// waitSince, ties broken by lowest index so selection is
// deterministic. ok is false when no writer is waiting.
func (s *accessState) oldestWaitingWriter() (AgentID, bool) {
	var oldest *agentRecord
	for _, id := range s.queue {
		if id.Kind != Writer {
			continue
		}
		record := s.agents[id]
		switch {
		case oldest == nil:
			oldest = record
		case record.waitSince.Before(oldest.waitSince):
			oldest = record
		case record.waitSince.Equal(oldest.waitSince) && record.id.Index < oldest.id.Index:
			oldest = record
		}
	}
	if oldest == nil {
		return AgentID{}, false
	}
	return oldest.id, true
}

// waitingWriters counts writers in the arrival queue.
func (s *accessState) waitingWriters() int {
	n := 0
	for _, id := range s.queue {
		if id.Kind == Writer {
			n++
		}
	}
	return n
}

func (s *accessState) removeFromQueue(id AgentID) {
	for i, queued := range s.queue {
		if queued == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
	panic("library: agent missing from arrival queue: " + id.String())
}
