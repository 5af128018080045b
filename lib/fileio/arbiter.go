// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"fmt"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// The cleanup arbiter is a process-wide single slot holding the path
// of the currently-open destination artifact. It is armed only after
// the destination opens successfully and disarmed before the handle
// closes, so an interrupt can delete a partial output but never a
// completed one. The handler goroutine only reads the slot.
var cleanup struct {
	mu        sync.Mutex
	path      string
	armed     bool
	installed bool
	signals   chan os.Signal

	// exit is swapped out by tests.
	exit func(int)
}

func init() {
	cleanup.exit = os.Exit
}

// armCleanup records dstName for deletion on interrupt. Arming over a
// previous arm is a logic error in the batch driver.
func armCleanup(dstName string) {
	cleanup.mu.Lock()
	defer cleanup.mu.Unlock()
	if cleanup.armed {
		panic("fileio: cleanup already armed for " + cleanup.path)
	}
	cleanup.path = dstName
	cleanup.armed = true

	if !cleanup.installed {
		cleanup.installed = true
		cleanup.signals = make(chan os.Signal, 1)
		signal.Notify(cleanup.signals, os.Interrupt)
		go handleInterrupts()
	}
}

// disarmCleanup clears the slot. Safe to call repeatedly.
func disarmCleanup() {
	cleanup.mu.Lock()
	defer cleanup.mu.Unlock()
	cleanup.path = ""
	cleanup.armed = false
}

// handleInterrupts services the interrupt channel for the life of the
// process. With an armed slot it removes the artifact and exits with
// status 2; with an empty slot it restores the default disposition and
// re-raises, so the process dies the way an unhandled interrupt would.
func handleInterrupts() {
	for range cleanup.signals {
		cleanup.mu.Lock()
		path := ""
		if cleanup.armed {
			path = cleanup.path
		}
		cleanup.mu.Unlock()

		if path == "" {
			signal.Reset(os.Interrupt)
			_ = unix.Kill(unix.Getpid(), unix.SIGINT)
			return
		}
		removeArtifact(path)
		fmt.Fprintln(os.Stderr)
		cleanup.exit(ExitInterrupted)
	}
}

// removeArtifact unlinks the armed destination if it still refers to a
// regular file.
func removeArtifact(path string) {
	if isRegularFile(path) {
		_ = os.Remove(path)
	}
}
