// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock provides the current time. Code that rate-limits or measures
// elapsed time should accept a Clock instead of calling the time
// package directly, so tests can control it.
type Clock interface {
	// Now returns the current time. Real clocks carry a monotonic
	// reading, so Since and Sub are safe against wall-clock jumps.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                  { return time.Now() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }
