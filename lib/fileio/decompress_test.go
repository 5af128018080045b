// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/zpress-io/zpress/lib/testutil"
	"github.com/zpress-io/zpress/lib/zframe"
)

func zstdFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderCRC(true))
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(payload, nil)
}

func gzipMember(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func skippableFrame(payload []byte) []byte {
	frame := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(frame, zframe.SkippableStart|0x7)
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(payload)))
	copy(frame[8:], payload)
	return frame
}

func decompressFile(t *testing.T, prefs *Prefs, srcPath, dstPath string) (int, error) {
	t.Helper()
	display, _ := testDisplay()
	return DecompressFilename(NewContext([]string{srcPath}), prefs, display, dstPath, srcPath, "")
}

// TestDemuxMixedFormats concatenates a zstd frame, a gzip member and a
// skippable frame into one file; the output must be the concatenation
// of the two payloads, with the skippable frame contributing nothing.
func TestDemuxMixedFormats(t *testing.T) {
	zPayload := bytes.Repeat([]byte("zstd part "), 2000)
	gPayload := bytes.Repeat([]byte("gzip part "), 1500)

	var stream bytes.Buffer
	stream.Write(zstdFrame(t, zPayload))
	stream.Write(gzipMember(t, gPayload))
	stream.Write(skippableFrame([]byte("metadata, not content")))

	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "mixed.zst", stream.Bytes())
	dst := filepath.Join(dir, "mixed.out")

	if status, err := decompressFile(t, NewPrefs(), src, dst); err != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, err)
	}
	want := append(append([]byte{}, zPayload...), gPayload...)
	testutil.RequireContent(t, dst, want)
}

// TestDemuxMultipleZstdFrames verifies multi-frame zstd streams decode
// to the concatenation of their frames.
func TestDemuxMultipleZstdFrames(t *testing.T) {
	a := bytes.Repeat([]byte{1, 2, 3}, 10_000)
	b := bytes.Repeat([]byte{9, 8}, 20_000)

	var stream bytes.Buffer
	stream.Write(zstdFrame(t, a))
	stream.Write(zstdFrame(t, b))

	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "two.zst", stream.Bytes())
	dst := filepath.Join(dir, "two.out")

	if status, err := decompressFile(t, NewPrefs(), src, dst); err != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, err)
	}
	testutil.RequireContent(t, dst, append(append([]byte{}, a...), b...))
}

// TestDecompressGzipWrappedZstd decodes x.zst.gz: the result is the
// zstd file, not recursively decompressed.
func TestDecompressGzipWrappedZstd(t *testing.T) {
	inner := zstdFrame(t, []byte("inner payload"))
	wrapped := gzipMember(t, inner)

	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "x.zst.gz", wrapped)

	dst, err := DecompressedName(src, "")
	if err != nil {
		t.Fatalf("DecompressedName: %v", err)
	}
	if filepath.Base(dst) != "x.zst" {
		t.Fatalf("derived name = %q, want x.zst", dst)
	}

	if status, derr := decompressFile(t, NewPrefs(), src, dst); derr != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, derr)
	}
	testutil.RequireContent(t, dst, inner)
}

// TestDecompressSparse verifies that a zero-heavy payload decompressed
// with sparse forced retains exact logical size and content, including
// a trailing zero run.
func TestDecompressSparse(t *testing.T) {
	payload := make([]byte, 1<<20) // scenario: 1 MiB of zero bytes
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "zeros.zst", zstdFrame(t, payload))
	dst := filepath.Join(dir, "zeros.out")

	prefs := NewPrefs()
	prefs.Sparse = SparseForce
	if status, err := decompressFile(t, prefs, src, dst); err != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, err)
	}
	testutil.RequireSize(t, dst, int64(len(payload)))
	testutil.RequireContent(t, dst, payload)
}

func TestDecompressUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "garbage.zst", []byte("this is not a frame"))
	dst := filepath.Join(dir, "garbage.out")

	status, err := decompressFile(t, NewPrefs(), src, dst)
	if err != nil {
		t.Fatalf("unexpected fatal: %v", err)
	}
	if status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
	// The partial destination must have been removed.
	testutil.RequireNotExist(t, dst)
}

func TestDecompressEmptyInputFails(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "empty.zst", nil)
	dst := filepath.Join(dir, "empty.out")

	status, err := decompressFile(t, NewPrefs(), src, dst)
	if err != nil {
		t.Fatalf("unexpected fatal: %v", err)
	}
	if status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
}

func TestDecompressTestModeWritesNothing(t *testing.T) {
	payload := bytes.Repeat([]byte("verify "), 5000)
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "data.zst", zstdFrame(t, payload))
	dst := filepath.Join(dir, "data.out")

	prefs := NewPrefs()
	prefs.TestMode = true
	if status, err := decompressFile(t, prefs, src, dst); err != nil || status != 0 {
		t.Fatalf("decompress: status=%d err=%v", status, err)
	}
	testutil.RequireNotExist(t, dst)
}

func TestDecompressTruncatedFrame(t *testing.T) {
	payload := bytes.Repeat([]byte("will be cut "), 20_000)
	frame := zstdFrame(t, payload)
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "cut.zst", frame[:len(frame)/2])
	dst := filepath.Join(dir, "cut.out")

	status, err := decompressFile(t, NewPrefs(), src, dst)
	if err != nil {
		t.Fatalf("unexpected fatal: %v", err)
	}
	if status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
	testutil.RequireNotExist(t, dst)
}

func TestDecompressRoundTripThroughEngineFormats(t *testing.T) {
	// The demultiplexer must route every format our own engine
	// produces.
	payload := testPayload(300_000)
	for _, format := range []Format{FormatGzip, FormatXz, FormatLzma, FormatLz4} {
		t.Run(format.String(), func(t *testing.T) {
			got := roundTrip(t, payload, format)
			if !bytes.Equal(got, payload) {
				t.Fatalf("mismatch for %v", format)
			}
		})
	}
}
