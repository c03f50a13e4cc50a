// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import "fmt"

// Kind distinguishes the two classes of agent contending for the
// library.
type Kind int

const (
	// Reader agents may share occupancy with other readers.
	Reader Kind = iota
	// Writer agents require exclusive occupancy.
	Writer
)

// String returns "reader" or "writer".
func (k Kind) String() string {
	switch k {
	case Reader:
		return "reader"
	case Writer:
		return "writer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// AgentID identifies one reader or writer. Indexes are assigned from
// zero within each kind, so Reader 0 and Writer 0 are distinct agents.
type AgentID struct {
	Kind  Kind
	Index int
}

// String returns the display form used in status output, for example
// "Reader 3" or "Writer 0".
func (id AgentID) String() string {
	switch id.Kind {
	case Reader:
		return fmt.Sprintf("Reader %d", id.Index)
	case Writer:
		return fmt.Sprintf("Writer %d", id.Index)
	default:
		return fmt.Sprintf("%v %d", id.Kind, id.Index)
	}
}

// Phase is an agent's position in the admission lifecycle.
type Phase int

const (
	// PhaseWaiting means the agent is enqueued and blocked in
	// RequestAdmission.
	PhaseWaiting Phase = iota
	// PhaseAdmitted means the agent occupies the library.
	PhaseAdmitted
)
