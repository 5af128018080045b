// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"os"
	"testing"
	"time"

	"github.com/zpress-io/zpress/lib/testutil"
)

func TestCleanupArmDisarm(t *testing.T) {
	dir := t.TempDir()
	dst := testutil.WriteFile(t, dir, "partial.zst", []byte("partial"))

	armCleanup(dst)
	cleanup.mu.Lock()
	armed, path := cleanup.armed, cleanup.path
	cleanup.mu.Unlock()
	if !armed || path != dst {
		t.Fatalf("armed=%v path=%q, want armed for %q", armed, path, dst)
	}

	disarmCleanup()
	disarmCleanup() // idempotent
	cleanup.mu.Lock()
	armed = cleanup.armed
	cleanup.mu.Unlock()
	if armed {
		t.Fatal("still armed after disarm")
	}
}

func TestCleanupDoubleArmPanics(t *testing.T) {
	dir := t.TempDir()
	dst := testutil.WriteFile(t, dir, "a.zst", nil)
	armCleanup(dst)
	defer disarmCleanup()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on double arm")
		}
		disarmCleanup()
	}()
	armCleanup(dst)
}

func TestInterruptRemovesArmedArtifact(t *testing.T) {
	dir := t.TempDir()
	dst := testutil.WriteFile(t, dir, "partial.zst", []byte("partial"))

	exited := make(chan int, 1)
	restore := cleanup.exit
	cleanup.exit = func(code int) { exited <- code }
	defer func() { cleanup.exit = restore }()

	armCleanup(dst)
	defer disarmCleanup()
	cleanup.signals <- os.Interrupt

	select {
	case code := <-exited:
		if code != ExitInterrupted {
			t.Errorf("exit code = %d, want %d", code, ExitInterrupted)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt handler did not run")
	}
	testutil.RequireNotExist(t, dst)
}

func TestRemoveArtifactSkipsNonRegular(t *testing.T) {
	// A slot pointing at a directory must not be removed.
	dir := t.TempDir()
	removeArtifact(dir)
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory was removed: %v", err)
	}
}
