// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package zframe

import (
	"bufio"
	"fmt"
	"io"
)

// FrameReader surfaces exactly one Zstandard data frame from a
// buffered stream and then reports io.EOF, leaving any following bytes
// unread in the underlying bufio.Reader. It tracks the frame structure
// (header, block headers, optional checksum) as bytes flow through, so
// the consumer never observes data past the frame boundary.
type FrameReader struct {
	src     *bufio.Reader
	pending int
	last    bool
	header  Header
	state   spanState
	err     error
}

type spanState int

const (
	spanBlocks spanState = iota
	spanChecksum
	spanDone
)

// NewFrameReader parses the frame header at the current position of
// src and returns a reader over that single frame. The position must
// be at a data-frame magic; skippable frames are the caller's job.
func NewFrameReader(src *bufio.Reader) (*FrameReader, error) {
	peeked, peekErr := src.Peek(HeaderSizeMax)
	header, err := ParseHeader(peeked)
	if err != nil {
		if err == ErrHeaderTruncated && peekErr != nil {
			return nil, fmt.Errorf("truncated frame header: %w", peekErr)
		}
		return nil, err
	}
	return &FrameReader{
		src:     src,
		pending: header.HeaderSize,
		header:  header,
	}, nil
}

// Header returns the parsed frame header.
func (f *FrameReader) Header() Header { return f.header }

// Read implements io.Reader over the bytes of the frame, verbatim.
func (f *FrameReader) Read(p []byte) (int, error) {
	for f.pending == 0 {
		if f.err != nil {
			return 0, f.err
		}
		if err := f.advance(); err != nil {
			f.err = err
			return 0, err
		}
	}

	n := f.pending
	if n > len(p) {
		n = len(p)
	}
	read, err := f.src.Read(p[:n])
	f.pending -= read
	if err == io.EOF && f.pending > 0 {
		err = io.ErrUnexpectedEOF
	}
	return read, err
}

// advance moves to the next structural segment of the frame and sets
// pending to its byte length.
func (f *FrameReader) advance() error {
	switch f.state {
	case spanBlocks:
		if f.last {
			if f.header.HasChecksum {
				f.state = spanChecksum
				f.pending = ChecksumSize
				return nil
			}
			f.state = spanDone
			return io.EOF
		}
		peeked, peekErr := f.src.Peek(BlockHeaderSize)
		block, err := ParseBlock(peeked)
		if err != nil {
			if err == ErrHeaderTruncated && peekErr != nil {
				return fmt.Errorf("truncated block header: %w", peekErr)
			}
			return err
		}
		f.last = block.Last
		f.pending = BlockHeaderSize + block.PayloadSize
		return nil

	case spanChecksum:
		f.state = spanDone
		return io.EOF

	default:
		return io.EOF
	}
}

// Drain consumes any bytes of the frame the consumer left unread, so
// the underlying reader is positioned exactly at the frame boundary.
func (f *FrameReader) Drain() error {
	_, err := io.Copy(io.Discard, f)
	return err
}
