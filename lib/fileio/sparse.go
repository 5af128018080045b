// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"encoding/binary"
	"io"
	"os"
)

const (
	// sparseWordSize is the zero-scan lane width.
	sparseWordSize = 8

	// sparseSegmentSize is the scan window; leading zero lanes within
	// a window are elided as a seek.
	sparseSegmentSize = 32 << 10

	// sparseMaxPending bounds the accumulated skip; an interim seek
	// drains it so the counter cannot overflow on narrow platforms.
	sparseMaxPending = 1 << 30
)

// sparseWriter is a stateful sink over a destination file that
// coalesces runs of zero bytes into seek-based holes. The pending skip
// counter is monotonically non-decreasing within a file until a write
// or Finish drains it; Finish materializes the final byte so the
// logical file size is exact even when the file ends in a hole.
type sparseWriter struct {
	file     *os.File
	out      io.Writer // equals file; nil in test mode
	sparse   bool
	testMode bool
	pending  uint64
}

// newSparseWriter builds a sink for the destination under the given
// preferences. file may be nil in test mode.
func newSparseWriter(file *os.File, prefs *Prefs) *sparseWriter {
	w := &sparseWriter{
		file:     file,
		sparse:   prefs.Sparse != SparseOff,
		testMode: prefs.TestMode,
	}
	if file != nil {
		w.out = file
	}
	return w
}

// Write implements io.Writer. In sparse mode, zero lanes are counted
// into the pending skip instead of being written; the skip is realized
// as a relative seek immediately before the next non-zero data.
func (w *sparseWriter) Write(p []byte) (int, error) {
	if w.testMode {
		return len(p), nil
	}
	if !w.sparse {
		n, err := w.out.Write(p)
		if err != nil {
			return n, coded(codeWrite, "Write error : cannot write decoded block : %v", err)
		}
		return n, nil
	}

	if w.pending > sparseMaxPending {
		if _, err := w.file.Seek(sparseMaxPending, io.SeekCurrent); err != nil {
			return 0, coded(codeWrite, "1 GB skip error (sparse file support)")
		}
		w.pending -= sparseMaxPending
	}

	total := len(p)
	words := p[:len(p)/sparseWordSize*sparseWordSize]
	tail := p[len(words):]

	for len(words) > 0 {
		segment := words
		if len(segment) > sparseSegmentSize {
			segment = segment[:sparseSegmentSize]
		}
		words = words[len(segment):]

		zero := 0
		for zero < len(segment) && binary.LittleEndian.Uint64(segment[zero:]) == 0 {
			zero += sparseWordSize
		}
		w.pending += uint64(zero)

		if zero < len(segment) {
			if err := w.drainPending(); err != nil {
				return 0, err
			}
			if _, err := w.file.Write(segment[zero:]); err != nil {
				return 0, coded(codeWrite, "Write error : cannot write decoded block : %v", err)
			}
		}
	}

	if len(tail) > 0 {
		zero := 0
		for zero < len(tail) && tail[zero] == 0 {
			zero++
		}
		w.pending += uint64(zero)
		if zero < len(tail) {
			if err := w.drainPending(); err != nil {
				return 0, err
			}
			if _, err := w.file.Write(tail[zero:]); err != nil {
				return 0, coded(codeWrite, "Write error : cannot write end of decoded block : %v", err)
			}
		}
	}

	return total, nil
}

// drainPending realizes the accumulated skip as a relative seek.
func (w *sparseWriter) drainPending() error {
	if w.pending == 0 {
		return nil
	}
	if _, err := w.file.Seek(int64(w.pending), io.SeekCurrent); err != nil {
		return coded(codeWrite, "Sparse skip error ; try --no-sparse")
	}
	w.pending = 0
	return nil
}

// Finish materializes a trailing hole. Seeks alone do not extend a
// file, so the last skipped byte is written explicitly as a zero.
func (w *sparseWriter) Finish() error {
	if w.testMode || w.pending == 0 {
		return nil
	}
	if _, err := w.file.Seek(int64(w.pending-1), io.SeekCurrent); err != nil {
		return coded(codeWrite, "Final skip error (sparse file support)")
	}
	w.pending = 0
	if _, err := w.file.Write([]byte{0}); err != nil {
		return coded(codeWrite, "Write error : cannot write last zero : %v", err)
	}
	return nil
}
