// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/zpress-io/zpress/lib/clock"
)

// ProgressMode controls whether progress lines are emitted.
type ProgressMode int

const (
	// ProgressAuto shows progress at sufficient verbosity on a
	// terminal.
	ProgressAuto ProgressMode = iota

	// ProgressAlways shows progress even when stderr is not a
	// terminal; the verbosity level still applies.
	ProgressAlways

	// ProgressNever suppresses progress lines entirely.
	ProgressNever
)

// Progress lines refresh at most this often.
const refreshInterval = time.Second / 6

// Display carries the process-wide verbosity and progress settings and
// rate-limits progress updates against a monotonic clock.
//
// Verbosity levels: 0 silent; 1 errors; 2 results, interaction and
// warnings; 3 progression; 4 information; 5 debug.
type Display struct {
	// Verbosity is the notification level, 0 through 5.
	Verbosity int

	// Progress selects the progress-line mode.
	Progress ProgressMode

	// Out receives all user-visible output. Defaults to stderr.
	Out io.Writer

	clk         clock.Clock
	lastRefresh time.Time
}

// NewDisplay returns a Display at the default verbosity writing to
// stderr.
func NewDisplay(clk clock.Clock) *Display {
	return &Display{Verbosity: 2, Out: os.Stderr, clk: clk}
}

// Printf writes a message when the verbosity is at least level.
func (d *Display) Printf(level int, format string, args ...any) {
	if d.Verbosity >= level {
		fmt.Fprintf(d.Out, format, args...)
	}
}

// readyForUpdate reports whether a throttled progress refresh is due,
// honoring the progress mode.
func (d *Display) readyForUpdate() bool {
	if d.Progress == ProgressNever {
		return false
	}
	return d.clk.Since(d.lastRefresh) > refreshInterval
}

// delayNextUpdate restarts the refresh interval.
func (d *Display) delayNextUpdate() {
	d.lastRefresh = d.clk.Now()
}

// Updatef writes a throttled progress line when the verbosity is at
// least level. At verbosity 4 and above every update is written,
// unthrottled.
func (d *Display) Updatef(level int, format string, args ...any) {
	if d.Verbosity < level || d.Progress == ProgressNever {
		return
	}
	if d.readyForUpdate() || d.Verbosity >= 4 {
		d.delayNextUpdate()
		fmt.Fprintf(d.Out, format, args...)
	}
}

// clearLine erases the current progress line.
func (d *Display) clearLine(level int) {
	d.Printf(level, "\r%79s\r", "")
}

// hsize renders a byte count for humans.
func hsize(n uint64) string {
	return humanize.IBytes(n)
}

// truncateName shortens a file name from the left so progress lines
// stay roughly the same width.
func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return "..." + name[len(name)-(max-3):]
}
