// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// decompressSuffixes are the recognized compressed-file suffixes. A
// leading "t" marks the short tar variants, which decompress to a
// ".tar" name instead of a plain strip.
var decompressSuffixes = []string{
	".zst", ".tzst", ".zz",
	".gz", ".tgz",
	".xz", ".txz", ".lzma",
	".lz4", ".tlz4",
}

// compressedSuffixes is the list consulted by --exclude-compressed.
var compressedSuffixes = []string{
	".zst", ".tzst", ".gz", ".tgz", ".lzma", ".xz", ".txz", ".lz4", ".tlz4",
}

// extractFilename returns the basename of path. It splits on the host
// separator and, on Windows, additionally on "/" to handle mixed
// separators.
func extractFilename(path string) string {
	name := path
	if idx := strings.LastIndexByte(name, os.PathSeparator); idx >= 0 {
		name = name[idx+1:]
	}
	if runtime.GOOS == "windows" {
		if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
			name = name[idx+1:]
		}
	}
	return name
}

// joinOutDir prepends outDir to the basename of path, inserting a
// separator unless outDir already ends with one.
func joinOutDir(path, outDir string) string {
	name := extractFilename(path)
	if strings.HasSuffix(outDir, string(os.PathSeparator)) {
		return outDir + name
	}
	return outDir + string(os.PathSeparator) + name
}

// CompressedName derives the destination path for compressing src:
// the source path (rebased into outDir when given) with suffix
// appended.
func CompressedName(src, outDir, suffix string) string {
	if outDir != "" {
		return joinOutDir(src, outDir) + suffix
	}
	return src + suffix
}

// DecompressedName derives the destination path for decompressing
// src. The source must carry a recognized compressed suffix; the short
// tar variants derive a ".tar" name, everything else strips the
// suffix.
func DecompressedName(src, outDir string) (string, error) {
	dot := strings.LastIndexByte(src, '.')
	if dot <= 0 {
		return "", coded(codeUnsupported,
			"%s: unknown suffix (%s expected)", src, strings.Join(decompressSuffixes, "/"))
	}
	suffix := src[dot:]

	matched := ""
	for _, known := range decompressSuffixes {
		if suffix == known {
			matched = known
			break
		}
	}
	if matched == "" || len(src) <= len(suffix) {
		return "", coded(codeUnsupported,
			"%s: unknown suffix (%s expected)", src, strings.Join(decompressSuffixes, "/"))
	}

	stem := src[:dot]
	if outDir != "" {
		stem = joinOutDir(stem, outDir)
	}
	if matched[1] == 't' {
		return stem + ".tar", nil
	}
	return stem, nil
}

// CheckFilenameCollisions warns when two sources in a batch share a
// basename and would therefore collide in a common output directory.
// It never fails the batch.
func CheckFilenameCollisions(display *Display, paths []string) {
	if len(paths) < 2 {
		return
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = extractFilename(p)
	}
	sort.Strings(names)
	for i := 1; i < len(names); i++ {
		if names[i] == names[i-1] {
			display.Printf(2, "WARNING: Two files have same filename: %s\n", names[i])
		}
	}
}

// isCompressedName reports whether src carries one of the suffixes
// that --exclude-compressed skips.
func isCompressedName(src string) bool {
	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(src, suffix) {
			return true
		}
	}
	return false
}

// mirroredDir rebuilds the directory portion of src under root and
// creates it. Relative climbs are rejected so a hostile source list
// cannot escape the mirror root.
func mirroredDir(src, root string) (string, error) {
	dir := filepath.Dir(filepath.Clean(src))
	if dir == "." || dir == string(os.PathSeparator) {
		return root, nil
	}
	if strings.HasPrefix(dir, "..") {
		return "", fmt.Errorf("cannot mirror %q: path climbs out of the source tree", src)
	}
	dir = strings.TrimPrefix(dir, string(os.PathSeparator))
	if vol := filepath.VolumeName(dir); vol != "" {
		dir = dir[len(vol):]
		dir = strings.TrimPrefix(dir, string(os.PathSeparator))
	}
	target := filepath.Join(root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("cannot mirror %q: %w", src, err)
	}
	return target, nil
}
