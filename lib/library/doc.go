// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

// Package library implements the shared-resource access coordination at
// the heart of the simulator: the reader/writer mutual-exclusion
// problem with an explicit fairness arbiter.
//
// The Coordinator owns all shared state and the single mutex guarding
// it. Agents (readers and writers) call [Coordinator.RequestAdmission],
// which blocks until the attached [Arbiter] policy admits them, occupy
// the library for a while, and call [Coordinator.Release]. Release
// atomically re-enqueues the agent, so demand is a closed loop.
//
// Two arbiter policies are provided, both starvation-free:
//
//   - [WindowedArbiter]: readers are admitted freely during a
//     randomized window; when it expires the longest-waiting writer
//     gets an exclusive turn while new reader admissions are gated.
//   - [FIFOArbiter]: both kinds share one arrival queue; the head is
//     admitted as soon as it is compatible with current occupancy, one
//     head decision per tick.
//
// Invariants, at every instant observable outside the coordinator's
// critical section:
//
//   - at most one writer occupies, and never together with readers
//   - every agent is either waiting or admitted, never both, never lost
//
// All waiting is condition-variable based; there are no busy-wait
// loops. Shutdown is cooperative: [Coordinator.Close] wakes every
// blocked call, which then returns [ErrClosed].
package library
