// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package zframe

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame format constants, per RFC 8878.
const (
	// MagicNumber opens every Zstandard data frame.
	MagicNumber = 0xFD2FB528

	// SkippableStart is the lowest of the 16 skippable-frame magics
	// (0x184D2A50 through 0x184D2A5F).
	SkippableStart = 0x184D2A50

	// SkippableMask masks off the low nibble of a skippable magic.
	SkippableMask = 0xFFFFFFF0

	// HeaderSizeMax is the largest possible frame header: 4 magic +
	// 1 descriptor + 1 window descriptor + 4 dictionary ID + 8 content
	// size.
	HeaderSizeMax = 18

	// HeaderSizeMin is the smallest possible frame header.
	HeaderSizeMin = 6

	// BlockHeaderSize is the fixed size of a block header.
	BlockHeaderSize = 3

	// ChecksumSize is the size of the optional trailing content
	// checksum (low 4 bytes of the XXH64 digest).
	ChecksumSize = 4
)

// ContentSizeUnknown marks a frame whose header does not declare the
// decompressed size.
const ContentSizeUnknown = ^uint64(0)

var (
	// ErrNotZstd reports that the buffer does not start with a
	// Zstandard data-frame magic.
	ErrNotZstd = errors.New("not a zstandard frame")

	// ErrHeaderTruncated reports that more input is needed to parse
	// the frame header.
	ErrHeaderTruncated = errors.New("truncated frame header")

	// ErrInvalidBlock reports a reserved block type in a block header.
	ErrInvalidBlock = errors.New("invalid block type")
)

// Header is the parsed leading portion of a Zstandard data frame.
type Header struct {
	// HeaderSize is the total byte length of the frame header,
	// including the 4-byte magic.
	HeaderSize int

	// WindowSize is the decoder working-memory requirement declared
	// by the frame.
	WindowSize uint64

	// ContentSize is the declared decompressed size, or
	// ContentSizeUnknown.
	ContentSize uint64

	// DictID is the dictionary ID, zero when absent.
	DictID uint32

	// HasChecksum reports whether a 4-byte content checksum follows
	// the last block.
	HasChecksum bool

	// SingleSegment frames have no window descriptor; the content is
	// decoded in one contiguous segment.
	SingleSegment bool
}

// IsSkippable reports whether magic identifies a skippable frame.
func IsSkippable(magic uint32) bool {
	return magic&SkippableMask == SkippableStart
}

// ParseHeader parses a data-frame header from the beginning of data.
// data need not contain the whole frame, but must contain the whole
// header; ErrHeaderTruncated asks the caller for more bytes.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < 5 {
		return Header{}, ErrHeaderTruncated
	}
	if binary.LittleEndian.Uint32(data) != MagicNumber {
		return Header{}, ErrNotZstd
	}

	descriptor := data[4]
	if descriptor&(1<<3) != 0 {
		return Header{}, fmt.Errorf("reserved frame header descriptor bit set")
	}

	var h Header
	h.SingleSegment = descriptor&(1<<5) != 0
	h.HasChecksum = descriptor&(1<<2) != 0

	fcsFlag := int(descriptor >> 6)
	dictIDSize := [4]int{0, 1, 2, 4}[descriptor&3]
	fcsSize := [4]int{0, 2, 4, 8}[fcsFlag]
	if fcsFlag == 0 && h.SingleSegment {
		fcsSize = 1
	}

	size := 5 + dictIDSize + fcsSize
	if !h.SingleSegment {
		size++
	}
	if len(data) < size {
		return Header{}, ErrHeaderTruncated
	}
	h.HeaderSize = size

	pos := 5
	if !h.SingleSegment {
		wd := data[pos]
		pos++
		windowLog := 10 + uint64(wd>>3)
		windowBase := uint64(1) << windowLog
		h.WindowSize = windowBase + (windowBase/8)*uint64(wd&7)
	}

	switch dictIDSize {
	case 1:
		h.DictID = uint32(data[pos])
	case 2:
		h.DictID = uint32(binary.LittleEndian.Uint16(data[pos:]))
	case 4:
		h.DictID = binary.LittleEndian.Uint32(data[pos:])
	}
	pos += dictIDSize

	h.ContentSize = ContentSizeUnknown
	switch fcsSize {
	case 1:
		h.ContentSize = uint64(data[pos])
	case 2:
		h.ContentSize = uint64(binary.LittleEndian.Uint16(data[pos:])) + 256
	case 4:
		h.ContentSize = uint64(binary.LittleEndian.Uint32(data[pos:]))
	case 8:
		h.ContentSize = binary.LittleEndian.Uint64(data[pos:])
	}

	if h.SingleSegment {
		h.WindowSize = h.ContentSize
	}
	return h, nil
}

// Block is a parsed block header.
type Block struct {
	// Last marks the final block of the frame.
	Last bool

	// Type is 0 (raw), 1 (RLE) or 2 (compressed). Type 3 is reserved
	// and rejected by ParseBlock.
	Type int

	// PayloadSize is the number of bytes following the header: the
	// declared size for raw and compressed blocks, always 1 for RLE.
	PayloadSize int
}

// ParseBlock decodes a 3-byte block header.
func ParseBlock(data []byte) (Block, error) {
	if len(data) < BlockHeaderSize {
		return Block{}, ErrHeaderTruncated
	}
	raw := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16

	var b Block
	b.Last = raw&1 != 0
	b.Type = int(raw >> 1 & 3)
	if b.Type == 3 {
		return Block{}, ErrInvalidBlock
	}
	if b.Type == 1 {
		b.PayloadSize = 1
	} else {
		b.PayloadSize = int(raw >> 3)
	}
	return b, nil
}
