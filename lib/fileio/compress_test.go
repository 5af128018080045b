// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/zpress-io/zpress/lib/testutil"
)

// roundTrip compresses src content in the given format and
// decompresses the artifact again, returning the final content.
func roundTrip(t *testing.T, content []byte, format Format) []byte {
	t.Helper()
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "input.bin", content)
	dst := src + format.Suffix()

	prefs := NewPrefs()
	prefs.Format = format
	ctx := NewContext([]string{src})
	display, _ := testDisplay()

	status, err := CompressFilename(ctx, prefs, display, dst, src, "", 3)
	if err != nil {
		t.Fatalf("compress fatal: %v", err)
	}
	if status != 0 {
		t.Fatalf("compress status = %d", status)
	}

	out := filepath.Join(dir, "roundtrip.bin")
	dPrefs := NewPrefs()
	dCtx := NewContext([]string{dst})
	dDisplay, _ := testDisplay()
	status, err = DecompressFilename(dCtx, dPrefs, dDisplay, out, dst, "")
	if err != nil {
		t.Fatalf("decompress fatal: %v", err)
	}
	if status != 0 {
		t.Fatalf("decompress status = %d", status)
	}
	return testutil.ReadFile(t, out)
}

func testPayload(size int) []byte {
	rng := rand.New(rand.NewSource(int64(size)))
	payload := make([]byte, size)
	// Compressible but not trivial: short runs with random breaks.
	for i := range payload {
		if rng.Intn(4) == 0 {
			payload[i] = byte(rng.Intn(256))
		} else {
			payload[i] = byte(i / 64)
		}
	}
	return payload
}

func TestRoundTripAllFormats(t *testing.T) {
	sizes := []int{0, 1, 7, 8, 32 << 10, 1 << 20, defaultJobSize + 12345}
	formats := []Format{FormatZstd, FormatGzip, FormatXz, FormatLzma, FormatLz4}

	for _, format := range formats {
		for _, size := range sizes {
			t.Run(format.String()+"/"+hsize(uint64(size)), func(t *testing.T) {
				content := testPayload(size)
				got := roundTrip(t, content, format)
				if !bytes.Equal(got, content) {
					t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(content))
				}
			})
		}
	}
}

func TestRoundTripMultipleWorkers(t *testing.T) {
	content := testPayload(5 << 20)
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "input.bin", content)
	dst := src + ".zst"

	prefs := NewPrefs()
	prefs.Workers = 4
	ctx := NewContext([]string{src})
	display, _ := testDisplay()
	if status, err := CompressFilename(ctx, prefs, display, dst, src, "", 3); err != nil || status != 0 {
		t.Fatalf("compress: status=%d err=%v", status, err)
	}

	out := filepath.Join(dir, "out.bin")
	dCtx := NewContext([]string{dst})
	dDisplay, _ := testDisplay()
	if status, err := DecompressFilename(dCtx, NewPrefs(), dDisplay, out, dst, ""); err != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, err)
	}
	testutil.RequireContent(t, out, content)
}

func TestRoundTripAdaptive(t *testing.T) {
	// Adaptive mode may split the output into several frames at level
	// changes; the result must still decode to the original bytes.
	content := testPayload(6 << 20)
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "input.bin", content)
	dst := src + ".zst"

	prefs := NewPrefs()
	prefs.Adaptive = true
	prefs.Workers = 2
	prefs.MinAdaptLevel = 1
	prefs.MaxAdaptLevel = 19
	ctx := NewContext([]string{src})
	display, _ := testDisplay()
	display.Progress = ProgressNever
	if status, err := CompressFilename(ctx, prefs, display, dst, src, "", 3); err != nil || status != 0 {
		t.Fatalf("compress: status=%d err=%v", status, err)
	}

	out := filepath.Join(dir, "out.bin")
	dDisplay, _ := testDisplay()
	if status, err := DecompressFilename(NewContext([]string{dst}), NewPrefs(), dDisplay, out, dst, ""); err != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, err)
	}
	testutil.RequireContent(t, out, content)
}

func TestCompressTransfersAttributes(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "input.bin", testPayload(1000))
	if err := os.Chmod(src, 0o640); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	dst := src + ".zst"

	display, _ := testDisplay()
	if status, err := CompressFilename(NewContext([]string{src}), NewPrefs(), display, dst, src, "", 3); err != nil || status != 0 {
		t.Fatalf("compress: status=%d err=%v", status, err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		t.Fatalf("stat src: %v", err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat dst: %v", err)
	}
	if dstInfo.Mode().Perm() != srcInfo.Mode().Perm() {
		t.Errorf("mode = %v, want %v", dstInfo.Mode().Perm(), srcInfo.Mode().Perm())
	}
	if !dstInfo.ModTime().Equal(srcInfo.ModTime()) {
		t.Errorf("mtime = %v, want %v", dstInfo.ModTime(), srcInfo.ModTime())
	}
}

func TestCompressRemoveSource(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "input.bin", testPayload(1000))
	dst := src + ".zst"

	prefs := NewPrefs()
	prefs.RemoveSrcFile = true
	display, _ := testDisplay()
	if status, err := CompressFilename(NewContext([]string{src}), prefs, display, dst, src, "", 3); err != nil || status != 0 {
		t.Fatalf("compress: status=%d err=%v", status, err)
	}
	testutil.RequireNotExist(t, src)
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestCompressDirectoryRefused(t *testing.T) {
	dir := t.TempDir()
	display, _ := testDisplay()
	status, err := CompressFilename(NewContext([]string{dir}), NewPrefs(), display, dir+".zst", dir, "", 3)
	if err != nil {
		t.Fatalf("unexpected fatal: %v", err)
	}
	if status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
	testutil.RequireNotExist(t, dir+".zst")
}

func TestExcludeCompressedSkipsQuietly(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "already.zst", []byte("pretend-compressed"))

	prefs := NewPrefs()
	prefs.ExcludeCompressed = true
	display, _ := testDisplay()
	status, err := CompressFilename(NewContext([]string{src}), prefs, display, src+".zst", src, "", 3)
	if err != nil {
		t.Fatalf("unexpected fatal: %v", err)
	}
	if status != 0 {
		t.Errorf("status = %d, want 0 (skip is success)", status)
	}
	testutil.RequireNotExist(t, src+".zst")
}

func TestGzipLevelClamp(t *testing.T) {
	if got := gzipLevel(22); got != 9 {
		t.Errorf("gzipLevel(22) = %d, want 9", got)
	}
	if got := gzipLevel(-3); got != 1 {
		t.Errorf("gzipLevel(-3) = %d, want 1", got)
	}
	if got := gzipLevel(6); got != 6 {
		t.Errorf("gzipLevel(6) = %d, want 6", got)
	}
}

func TestPatchFromRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := testPayload(256 << 10)
	// A variant of the baseline: same content with a small edit.
	variant := append([]byte{}, base...)
	copy(variant[1000:], []byte("patched region"))

	dictPath := testutil.WriteFile(t, dir, "base.bin", base)
	src := testutil.WriteFile(t, dir, "variant.bin", variant)
	dst := src + ".zst"

	prefs := NewPrefs()
	prefs.PatchFrom = true
	display, _ := testDisplay()
	if status, err := CompressFilename(NewContext([]string{src}), prefs, display, dst, src, dictPath, 3); err != nil || status != 0 {
		t.Fatalf("compress: status=%d err=%v", status, err)
	}

	out := filepath.Join(dir, "restored.bin")
	dPrefs := NewPrefs()
	dPrefs.PatchFrom = true
	dDisplay, _ := testDisplay()
	if status, err := DecompressFilename(NewContext([]string{dst}), dPrefs, dDisplay, out, dst, dictPath); err != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, err)
	}
	testutil.RequireContent(t, out, variant)
}
