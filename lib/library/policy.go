// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import "fmt"

// Policy names an arbiter implementation.
type Policy string

const (
	// PolicyWindowed selects the WindowedArbiter.
	PolicyWindowed Policy = "windowed"
	// PolicyFIFO selects the FIFOArbiter.
	PolicyFIFO Policy = "fifo"
)

// ParsePolicy maps a user-supplied policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyWindowed:
		return PolicyWindowed, nil
	case PolicyFIFO:
		return PolicyFIFO, nil
	default:
		return "", fmt.Errorf("unknown policy %q (want %q or %q)", s, PolicyWindowed, PolicyFIFO)
	}
}
