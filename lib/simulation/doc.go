// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

// Package simulation assembles and runs one complete simulation: a
// coordinator with the configured arbiter policy, one goroutine per
// reader and writer looping through the demand cycle, and a status
// reporter feeding snapshots to the caller.
//
// Everything shuts down cooperatively: cancelling the context passed
// to [Simulation.Run] closes the coordinator, which wakes every
// blocked admission, and Run returns once all goroutines have joined.
package simulation
