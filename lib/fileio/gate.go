// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// errFileSkipped marks a per-file policy refusal. The refusal message
// has already been printed; the batch records status 1 and moves on.
var errFileSkipped = errors.New("file skipped")

// promptReader is where interactive confirmations read from. Tests
// substitute a scripted reader.
var promptReader io.Reader = os.Stdin

// statMode returns the unix mode of path, or ok=false if it cannot be
// stat-ed.
func statMode(path string) (uint32, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, false
	}
	return uint32(st.Mode), true
}

func isRegularMode(mode uint32) bool { return mode&unix.S_IFMT == unix.S_IFREG }
func isFIFOMode(mode uint32) bool    { return mode&unix.S_IFMT == unix.S_IFIFO }
func isBlockMode(mode uint32) bool   { return mode&unix.S_IFMT == unix.S_IFBLK }

// isRegularFile reports whether path exists and is a regular file.
func isRegularFile(path string) bool {
	mode, ok := statMode(path)
	return ok && isRegularMode(mode)
}

// sameFile reports whether two paths resolve to the same file by
// device and inode identity, never by name comparison.
func sameFile(a, b string) bool {
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

// removeFile unlinks path, refusing non-regular files so a bad
// destination derivation can never unlink a device node.
func removeFile(display *Display, path string) error {
	mode, ok := statMode(path)
	if !ok {
		display.Printf(2, "zpress: Failed to stat %s while trying to remove it\n", path)
		return errFileSkipped
	}
	if !isRegularMode(mode) {
		display.Printf(2, "zpress: Refusing to remove non-regular file %s\n", path)
		return errFileSkipped
	}
	return os.Remove(path)
}

// openSourceFile opens a source for reading. StdinMark maps to
// standard input. Regular files and FIFOs are accepted; block devices
// only when allowed by preference; everything else is refused with a
// warning.
func openSourceFile(prefs *Prefs, display *Display, srcName string) (*os.File, error) {
	if srcName == StdinMark {
		display.Printf(4, "Using stdin for input \n")
		return os.Stdin, nil
	}

	var st unix.Stat_t
	if err := unix.Stat(srcName, &st); err != nil {
		display.Printf(1, "zpress: can't stat %s : %v -- ignored \n", srcName, err)
		return nil, errFileSkipped
	}
	mode := uint32(st.Mode)
	allowBlock := prefs != nil && prefs.AllowBlockDevices
	if !isRegularMode(mode) && !isFIFOMode(mode) && !(allowBlock && isBlockMode(mode)) {
		display.Printf(1, "zpress: %s is not a regular file -- ignored \n", srcName)
		return nil, errFileSkipped
	}

	f, err := os.Open(srcName)
	if err != nil {
		display.Printf(1, "zpress: %s: %v \n", srcName, err)
		return nil, errFileSkipped
	}
	return f, nil
}

// confirm asks a y/n question on the display and reads the answer from
// the prompt reader. Any answer not starting with an accepted rune
// refuses.
func confirm(display *Display, prompt, refusal string) bool {
	display.Printf(1, "%s", prompt)
	reader := bufio.NewReader(promptReader)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		display.Printf(1, "%s", refusal)
		return false
	}
	answer := strings.TrimSpace(line)
	if answer == "" || (answer[0] != 'y' && answer[0] != 'Y') {
		display.Printf(1, "%s", refusal)
		return false
	}
	return true
}

// openDestinationFile opens a destination for writing. StdoutMark maps
// to standard output and downgrades sparse auto mode to off. A
// destination resolving to the source file is refused. An existing
// regular file is replaced under --force, removed after interactive
// confirmation when the verbosity permits a prompt, and refused
// otherwise. The file is created with the requested permission bits.
func openDestinationFile(ctx *Context, prefs *Prefs, display *Display,
	srcName, dstName string, mode os.FileMode) (*os.File, error) {

	if prefs.TestMode {
		return nil, nil
	}

	if dstName == StdoutMark {
		display.Printf(4, "Using stdout for output \n")
		if prefs.Sparse == SparseAuto {
			prefs.Sparse = SparseOff
			display.Printf(4, "Sparse File Support is automatically disabled on stdout ; try --sparse \n")
		}
		return os.Stdout, nil
	}

	if srcName != "" && sameFile(srcName, dstName) {
		display.Printf(1, "zpress: Refusing to open an output file which will overwrite the input file \n")
		return nil, errFileSkipped
	}

	if isRegularFile(dstName) {
		// On some platforms the null device is mis-detected as a
		// regular file; unlinking it would be destructive.
		if dstName == NulMark {
			return nil, coded(codeOpen, "%s is unexpectedly categorized as a regular file", dstName)
		}
		if !prefs.Overwrite {
			if display.Verbosity <= 1 {
				display.Printf(1, "zpress: %s already exists; not overwritten  \n", dstName)
				return nil, errFileSkipped
			}
			display.Printf(1, "zpress: %s already exists; ", dstName)
			if ctx.HasStdinInput || !confirm(display, "overwrite (y/n) ? ", "Not overwritten  \n") {
				return nil, errFileSkipped
			}
		}
		if err := removeFile(display, dstName); err != nil {
			return nil, errFileSkipped
		}
	}

	f, err := os.OpenFile(dstName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		display.Printf(1, "zpress: %s: %v\n", dstName, err)
		return nil, errFileSkipped
	}
	return f, nil
}

// loadDictionary reads a dictionary file, bounded by the memory limit
// in patch-from mode and by dictSizeMax otherwise. An empty path
// yields an empty buffer; an oversize dictionary is a hard error.
func loadDictionary(prefs *Prefs, display *Display, fileName string) ([]byte, error) {
	if fileName == "" {
		return nil, nil
	}
	display.Printf(4, "Loading %s as dictionary \n", fileName)

	info, err := os.Stat(fileName)
	if err != nil {
		return nil, coded(codeOpen, "%s: %v", fileName, err)
	}
	if !info.Mode().IsRegular() {
		return nil, coded(codeDictTooLarge, "Dictionary file %s is not a regular file", fileName)
	}

	capSize := uint64(dictSizeMax)
	if prefs.PatchFrom && prefs.MemLimit > 0 {
		capSize = prefs.MemLimit
	}
	if uint64(info.Size()) > capSize {
		return nil, coded(codeDictTooLarge, "Dictionary file %s is too large (> %d bytes)", fileName, capSize)
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, coded(codeRead, "Error reading dictionary file %s : %v", fileName, err)
	}
	return data, nil
}

// sourceAttributes captures the permission bits and mtime of a regular
// source file so they can be transferred to the destination.
func sourceAttributes(srcName string) (os.FileInfo, bool) {
	if srcName == StdinMark {
		return nil, false
	}
	info, err := os.Stat(srcName)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	return info, true
}

// transferAttributes applies the source's mode bits and mtime to the
// finished destination.
func transferAttributes(dstName string, info os.FileInfo) {
	_ = os.Chmod(dstName, info.Mode().Perm())
	_ = os.Chtimes(dstName, info.ModTime(), info.ModTime())
}
