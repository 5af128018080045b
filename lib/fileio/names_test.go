// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/zpress-io/zpress/lib/clock"
)

func testDisplay() (*Display, *bytes.Buffer) {
	var buf bytes.Buffer
	d := NewDisplay(clock.NewFake(time.Unix(0, 0)))
	d.Out = &buf
	return d, &buf
}

func TestCompressedName(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		outDir string
		suffix string
		want   string
	}{
		{"plain append", "data.bin", "", ".zst", "data.bin.zst"},
		{"nested source", "a/b/data.bin", "", ".zst", "a/b/data.bin.zst"},
		{"out dir", "a/b/data.bin", "/out", ".zst", "/out/data.bin.zst"},
		{"out dir with trailing separator", "data.bin", "/out/", ".zst", "/out/data.bin.zst"},
		{"gz suffix", "log.txt", "", ".gz", "log.txt.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompressedName(tt.src, tt.outDir, tt.suffix)
			if got != tt.want {
				t.Errorf("CompressedName(%q, %q, %q) = %q, want %q",
					tt.src, tt.outDir, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestDecompressedName(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		outDir  string
		want    string
		wantErr bool
	}{
		{"strip zst", "data.bin.zst", "", "data.bin", false},
		{"strip gz", "log.txt.gz", "", "log.txt", false},
		{"strip lz4", "img.lz4", "", "img", false},
		{"strip xz", "a/b/c.xz", "", "a/b/c", false},
		{"tzst becomes tar", "backup.tzst", "", "backup.tar", false},
		{"tgz becomes tar", "backup.tgz", "", "backup.tar", false},
		{"txz becomes tar", "backup.txz", "", "backup.tar", false},
		{"tlz4 becomes tar", "backup.tlz4", "", "backup.tar", false},
		{"out dir rebase", "a/b/data.zst", "/out", "/out/data", false},
		{"unknown suffix", "data.bin", "", "", true},
		{"no suffix", "data", "", "", true},
		{"bare dot name", ".zst", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecompressedName(tt.src, tt.outDir)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecompressedName(%q) succeeded with %q, want error", tt.src, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecompressedName(%q) failed: %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("DecompressedName(%q, %q) = %q, want %q", tt.src, tt.outDir, got, tt.want)
			}
		})
	}
}

func TestCheckFilenameCollisions(t *testing.T) {
	display, out := testDisplay()
	CheckFilenameCollisions(display, []string{"a/data.bin", "b/data.bin", "c/other.bin"})
	if !strings.Contains(out.String(), "data.bin") {
		t.Errorf("expected collision warning for data.bin, got %q", out.String())
	}

	display2, out2 := testDisplay()
	CheckFilenameCollisions(display2, []string{"a/x.bin", "b/y.bin"})
	if out2.Len() != 0 {
		t.Errorf("unexpected warning: %q", out2.String())
	}
}

func TestIsCompressedName(t *testing.T) {
	if !isCompressedName("archive.tar.zst") {
		t.Error("archive.tar.zst should be recognized as compressed")
	}
	if isCompressedName("archive.tar") {
		t.Error("archive.tar should not be recognized as compressed")
	}
}

func TestMirroredDirRejectsClimb(t *testing.T) {
	if _, err := mirroredDir("../../etc/passwd", t.TempDir()); err == nil {
		t.Error("expected error for climbing path")
	}
}

func TestMirroredDirCreatesTree(t *testing.T) {
	root := t.TempDir()
	dir, err := mirroredDir("src/a/b/file.bin", root)
	if err != nil {
		t.Fatalf("mirroredDir failed: %v", err)
	}
	if !strings.HasSuffix(dir, "src/a/b") {
		t.Errorf("mirroredDir = %q, want suffix src/a/b", dir)
	}
}
