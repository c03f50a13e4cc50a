// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

package library

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// DurationSpan is an inclusive [Min, Max] range from which occupancy
// and window durations are drawn.
type DurationSpan struct {
	Min time.Duration
	Max time.Duration
}

// Span builds a DurationSpan from whole seconds, normalizing an
// inverted pair. This is the form durations take on the command line.
func Span(minSeconds, maxSeconds int) DurationSpan {
	span := DurationSpan{
		Min: time.Duration(minSeconds) * time.Second,
		Max: time.Duration(maxSeconds) * time.Second,
	}
	return span.Normalized()
}

// Normalized returns the span with Min and Max swapped when Min > Max.
// An inverted pair is not an error; it is silently repaired at
// configuration time.
func (s DurationSpan) Normalized() DurationSpan {
	if s.Min > s.Max {
		s.Min, s.Max = s.Max, s.Min
	}
	return s
}

// Pick draws a duration uniformly from [Min, Max], both ends
// inclusive. The span must be normalized.
func (s DurationSpan) Pick(rng *rand.Rand) time.Duration {
	if s.Max <= s.Min {
		return s.Min
	}
	return s.Min + time.Duration(rng.Int64N(int64(s.Max-s.Min)+1))
}

// String renders the span as "[min, max]" in seconds.
func (s DurationSpan) String() string {
	return fmt.Sprintf("[%gs, %gs]", s.Min.Seconds(), s.Max.Seconds())
}
