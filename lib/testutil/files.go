// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a file with the given content under dir and
// returns its path. Parent directories are created as needed.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// ReadFile reads the whole file or fails the test.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

// RequireContent fails the test unless the file at path holds exactly
// want. Mismatches report lengths rather than dumping binary content.
func RequireContent(t *testing.T, path string, want []byte) {
	t.Helper()
	got := ReadFile(t, path)
	if !bytes.Equal(got, want) {
		t.Fatalf("%s: content mismatch: got %d bytes, want %d bytes", path, len(got), len(want))
	}
}

// RequireNotExist fails the test if path exists.
func RequireNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("%s: expected to not exist (stat err: %v)", path, err)
	}
}

// RequireSize fails the test unless the file's logical size is want.
func RequireSize(t *testing.T, path string, want int64) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.Size() != want {
		t.Fatalf("%s: size = %d, want %d", path, info.Size(), want)
	}
}
