// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called. Sleep, After, and ticker operations
// register pending waiters that fire when the clock advances past
// their deadline.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.waitersChanged = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for testing. Time advances only
// when Advance is called; goroutines blocked in Sleep or on After
// channels stay blocked until the clock is advanced past their
// deadline.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	waiters        []*fakeWaiter
	waitersChanged *sync.Cond
}

// fakeWaiter is one pending sleep, After channel, or ticker.
type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time

	// interval is non-zero for tickers. After firing, the waiter is
	// rescheduled at deadline + interval.
	interval time.Duration

	// stopped is set by Ticker.Stop. Stopped waiters are skipped
	// during Advance and garbage-collected.
	stopped bool

	// fired marks a one-shot waiter that has already delivered,
	// preventing double delivery on overlapping Advance calls.
	fired bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock has been
// advanced by at least d. If d <= 0, the channel receives immediately
// without registering a waiter.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}

	c.waiters = append(c.waiters, &fakeWaiter{
		deadline: c.current.Add(d),
		channel:  channel,
	})
	c.waitersChanged.Broadcast()
	return channel
}

// NewTicker returns a Ticker that fires each time the clock advances
// past a multiple of d. Panics if d <= 0, matching time.NewTicker.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	waiter := &fakeWaiter{
		deadline: c.current.Add(d),
		channel:  channel,
		interval: d,
	}
	c.waiters = append(c.waiters, waiter)
	c.waitersChanged.Broadcast()

	return &Ticker{
		C: channel,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			waiter.stopped = true
		},
	}
}

// Sleep blocks until the clock has been advanced by at least d.
// Returns immediately if d <= 0.
func (c *FakeClock) Sleep(d time.Duration) {
	<-c.After(d)
}

// Advance moves the clock forward by d, firing every waiter whose
// deadline falls within the advanced span, in deadline order. Tickers
// fire repeatedly if the span covers multiple intervals, though a
// slow consumer observes at most one buffered tick.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.current.Add(d)
	for {
		next, ok := c.nextDeadlineLocked(target)
		if !ok {
			break
		}
		c.current = next
		c.fireDueLocked()
	}
	c.current = target
	c.collectLocked()
}

// WaitForWaiters blocks until at least n live waiters (pending sleeps,
// After channels, or tickers) are registered. Use it to make sure the
// goroutines under test have reached their blocking point before
// calling Advance.
func (c *FakeClock) WaitForWaiters(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.liveWaitersLocked() < n {
		c.waitersChanged.Wait()
	}
}

// nextDeadlineLocked returns the earliest unfired deadline at or
// before limit.
func (c *FakeClock) nextDeadlineLocked(limit time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, waiter := range c.waiters {
		if waiter.stopped || waiter.fired {
			continue
		}
		if waiter.deadline.After(limit) {
			continue
		}
		if !found || waiter.deadline.Before(next) {
			next = waiter.deadline
			found = true
		}
	}
	return next, found
}

// fireDueLocked delivers to every waiter whose deadline is at or
// before the current time, in deadline order.
func (c *FakeClock) fireDueLocked() {
	due := make([]*fakeWaiter, 0, len(c.waiters))
	for _, waiter := range c.waiters {
		if waiter.stopped || waiter.fired {
			continue
		}
		if !waiter.deadline.After(c.current) {
			due = append(due, waiter)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })

	for _, waiter := range due {
		select {
		case waiter.channel <- c.current:
		default:
			// Buffered tick not yet consumed; drop, like time.Ticker.
		}
		if waiter.interval > 0 {
			waiter.deadline = waiter.deadline.Add(waiter.interval)
		} else {
			waiter.fired = true
		}
	}
}

// collectLocked drops fired and stopped waiters.
func (c *FakeClock) collectLocked() {
	live := c.waiters[:0]
	for _, waiter := range c.waiters {
		if waiter.stopped || waiter.fired {
			continue
		}
		live = append(live, waiter)
	}
	c.waiters = live
}

func (c *FakeClock) liveWaitersLocked() int {
	n := 0
	for _, waiter := range c.waiters {
		if !waiter.stopped && !waiter.fired {
			n++
		}
	}
	return n
}
