// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling time.Now,
// time.After, time.NewTicker, or time.Sleep directly. Real() provides the
// standard library behavior; Fake() provides a deterministic clock that
// advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that sleep or tick:
//
//	type Reporter struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	r := &Reporter{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	r := &Reporter{clock: c}
//	// ... start goroutines ...
//	c.WaitForWaiters(1)        // goroutine has registered its timer
//	c.Advance(5 * time.Second) // fire it deterministically
//
// # FakeClock Synchronization
//
// A goroutine that calls Sleep, After, or NewTicker on a FakeClock
// registers a pending waiter. WaitForWaiters blocks until a given number
// of waiters are registered, which removes the race between timer
// registration and time advancement that plagues tests synchronized with
// real sleeps.
package clock
