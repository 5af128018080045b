// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zpress-io/zpress/lib/testutil"
)

func TestOpenSourceFileRegular(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "in.bin", []byte("data"))
	display, _ := testDisplay()

	f, err := openSourceFile(NewPrefs(), display, src)
	if err != nil {
		t.Fatalf("openSourceFile: %v", err)
	}
	f.Close()
}

func TestOpenSourceFileMissing(t *testing.T) {
	display, out := testDisplay()
	_, err := openSourceFile(NewPrefs(), display, "/nonexistent/path")
	if !errors.Is(err, errFileSkipped) {
		t.Fatalf("err = %v, want errFileSkipped", err)
	}
	if !strings.Contains(out.String(), "ignored") {
		t.Errorf("expected ignored warning, got %q", out.String())
	}
}

func TestOpenSourceFileRefusesCharDevice(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("no /dev/null")
	}
	display, out := testDisplay()
	_, err := openSourceFile(NewPrefs(), display, "/dev/null")
	if !errors.Is(err, errFileSkipped) {
		t.Fatalf("err = %v, want errFileSkipped", err)
	}
	if !strings.Contains(out.String(), "not a regular file") {
		t.Errorf("expected refusal warning, got %q", out.String())
	}
}

func TestOpenDestinationRefusesSelfOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "same.bin", []byte("data"))
	display, out := testDisplay()

	// A second path to the same inode: identity must be detected by
	// stat, not by string comparison.
	link := filepath.Join(dir, "alias.bin")
	if err := os.Link(src, link); err != nil {
		t.Skipf("hardlink not supported: %v", err)
	}

	ctx := NewContext([]string{src})
	_, err := openDestinationFile(ctx, NewPrefs(), display, src, link, 0o644)
	if !errors.Is(err, errFileSkipped) {
		t.Fatalf("err = %v, want errFileSkipped", err)
	}
	if !strings.Contains(out.String(), "overwrite the input file") {
		t.Errorf("expected self-overwrite refusal, got %q", out.String())
	}
	// The original file must be untouched.
	testutil.RequireContent(t, src, []byte("data"))
}

func TestOpenDestinationPromptDeclined(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "in.bin", []byte("input"))
	dst := testutil.WriteFile(t, dir, "out.zst", []byte("existing"))

	display, out := testDisplay()
	restore := promptReader
	promptReader = strings.NewReader("n\n")
	defer func() { promptReader = restore }()

	ctx := NewContext([]string{src})
	_, err := openDestinationFile(ctx, NewPrefs(), display, src, dst, 0o644)
	if !errors.Is(err, errFileSkipped) {
		t.Fatalf("err = %v, want errFileSkipped", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("expected existence notice, got %q", out.String())
	}
	// Declining must leave the original untouched.
	testutil.RequireContent(t, dst, []byte("existing"))
}

func TestOpenDestinationPromptAccepted(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "in.bin", []byte("input"))
	dst := testutil.WriteFile(t, dir, "out.zst", []byte("existing"))

	display, _ := testDisplay()
	restore := promptReader
	promptReader = strings.NewReader("y\n")
	defer func() { promptReader = restore }()

	ctx := NewContext([]string{src})
	f, err := openDestinationFile(ctx, NewPrefs(), display, src, dst, 0o644)
	if err != nil {
		t.Fatalf("openDestinationFile: %v", err)
	}
	f.Close()
}

func TestOpenDestinationForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "in.bin", []byte("input"))
	dst := testutil.WriteFile(t, dir, "out.zst", []byte("existing"))

	prefs := NewPrefs()
	prefs.Overwrite = true
	display, _ := testDisplay()
	f, err := openDestinationFile(NewContext([]string{src}), prefs, display, src, dst, 0o644)
	if err != nil {
		t.Fatalf("openDestinationFile: %v", err)
	}
	f.Close()
	testutil.RequireSize(t, dst, 0)
}

func TestOpenDestinationNoPromptWithStdinData(t *testing.T) {
	dir := t.TempDir()
	dst := testutil.WriteFile(t, dir, "out.zst", []byte("existing"))

	display, _ := testDisplay()
	ctx := NewContext([]string{StdinMark})
	// stdin carries data, so no interactive prompt may be attempted;
	// the file must be refused.
	_, err := openDestinationFile(ctx, NewPrefs(), display, "", dst, 0o644)
	if !errors.Is(err, errFileSkipped) {
		t.Fatalf("err = %v, want errFileSkipped", err)
	}
	testutil.RequireContent(t, dst, []byte("existing"))
}

func TestOpenDestinationStdoutDowngradesSparse(t *testing.T) {
	prefs := NewPrefs()
	prefs.Sparse = SparseAuto
	display, _ := testDisplay()
	f, err := openDestinationFile(NewContext(nil), prefs, display, "", StdoutMark, 0o644)
	if err != nil {
		t.Fatalf("openDestinationFile: %v", err)
	}
	if f != os.Stdout {
		t.Error("expected os.Stdout")
	}
	if prefs.Sparse != SparseOff {
		t.Errorf("Sparse = %v, want SparseOff", prefs.Sparse)
	}

	// Forced sparse survives stdout.
	prefs2 := NewPrefs()
	prefs2.Sparse = SparseForce
	if _, err := openDestinationFile(NewContext(nil), prefs2, display, "", StdoutMark, 0o644); err != nil {
		t.Fatalf("openDestinationFile: %v", err)
	}
	if prefs2.Sparse != SparseForce {
		t.Errorf("Sparse = %v, want SparseForce", prefs2.Sparse)
	}
}

func TestLoadDictionaryCap(t *testing.T) {
	dir := t.TempDir()
	dict := testutil.WriteFile(t, dir, "dict.bin", make([]byte, 8<<10))

	t.Run("within cap", func(t *testing.T) {
		display, _ := testDisplay()
		data, err := loadDictionary(NewPrefs(), display, dict)
		if err != nil {
			t.Fatalf("loadDictionary: %v", err)
		}
		if len(data) != 8<<10 {
			t.Errorf("len = %d, want %d", len(data), 8<<10)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		display, _ := testDisplay()
		data, err := loadDictionary(NewPrefs(), display, "")
		if err != nil || data != nil {
			t.Errorf("got (%v, %v), want (nil, nil)", data, err)
		}
	})

	t.Run("over patch-from cap", func(t *testing.T) {
		prefs := NewPrefs()
		prefs.PatchFrom = true
		prefs.MemLimit = 4 << 10
		display, _ := testDisplay()
		_, err := loadDictionary(prefs, display, dict)
		var codedErr *Error
		if !errors.As(err, &codedErr) || codedErr.Code != codeDictTooLarge {
			t.Fatalf("err = %v, want dict-too-large", err)
		}
	})
}

func TestRemoveFileRefusesNonRegular(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("no /dev/null")
	}
	display, out := testDisplay()
	if err := removeFile(display, "/dev/null"); err == nil {
		t.Fatal("expected refusal")
	}
	if !strings.Contains(out.String(), "Refusing to remove") {
		t.Errorf("expected refusal message, got %q", out.String())
	}
}
