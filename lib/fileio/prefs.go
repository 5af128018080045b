// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package fileio

import "fmt"

// Sentinel names. These are matched by exact string comparison, so
// path-like user arguments can never collide with them accidentally.
const (
	// StdinMark identifies standard input in a source list.
	StdinMark = `/*stdin*\`

	// StdoutMark identifies standard output as a destination.
	StdoutMark = `/*stdout*\`

	// NulMark identifies the null-device sink.
	NulMark = "/dev/null"
)

// Format selects the output frame format for compression. On
// decompression the demultiplexer recognizes all of them regardless of
// this setting.
type Format int

const (
	FormatZstd Format = iota
	FormatGzip
	FormatXz
	FormatLzma
	FormatLz4
)

// String returns the canonical suffix-like name of the format.
func (f Format) String() string {
	switch f {
	case FormatZstd:
		return "zstd"
	case FormatGzip:
		return "gzip"
	case FormatXz:
		return "xz"
	case FormatLzma:
		return "lzma"
	case FormatLz4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParseFormat parses a format from its string name.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "zstd", "zst":
		return FormatZstd, nil
	case "gzip", "gz":
		return FormatGzip, nil
	case "xz":
		return FormatXz, nil
	case "lzma":
		return FormatLzma, nil
	case "lz4":
		return FormatLz4, nil
	default:
		return 0, fmt.Errorf("unknown format: %q", name)
	}
}

// Suffix returns the filename suffix appended on compression.
func (f Format) Suffix() string {
	switch f {
	case FormatGzip:
		return ".gz"
	case FormatXz:
		return ".xz"
	case FormatLzma:
		return ".lzma"
	case FormatLz4:
		return ".lz4"
	default:
		return ".zst"
	}
}

// SparseMode controls zero-run elision on decompression output.
type SparseMode int

const (
	// SparseOff writes every byte.
	SparseOff SparseMode = iota

	// SparseAuto enables sparse writes for regular files and is
	// downgraded to SparseOff when the destination is stdout.
	SparseAuto

	// SparseForce enables sparse writes unconditionally.
	SparseForce
)

// Codec level bounds for the Zstandard path. Negative levels select
// the fastest tier.
const (
	zstdMinLevel = -5
	zstdMaxLevel = 22
)

// Dictionary size cap outside patch-from mode; protects against
// hostile inputs.
const dictSizeMax = 32 << 20

// Prefs is the process-wide option bag. It is mutated only between
// files, never during one.
type Prefs struct {
	// Format tags the compression output format.
	Format Format

	// Level is the requested compression level, in the zstd numeric
	// range for zstd and mapped onto the gzip and lz4 levels; the xz
	// and lzma writers do not use it.
	Level int

	// Sparse selects the sparse-write mode for decompression.
	Sparse SparseMode

	// ChecksumFlag asks for a content checksum in formats that carry
	// one, and enforces verification on decompression.
	ChecksumFlag bool

	// DictIDFlag is carried for interface compatibility; the encoder
	// options do not read it.
	DictIDFlag bool

	// Workers is the codec worker count for the Zstandard path.
	Workers int

	// JobSize is the per-job chunk size for the Zstandard pipeline;
	// zero selects the default.
	JobSize int

	// OverlapLog and Rsyncable are accepted for interface
	// compatibility; this codec has no corresponding controls.
	OverlapLog int
	Rsyncable  bool

	// Adaptive enables the closed-loop level controller.
	Adaptive      bool
	MinAdaptLevel int
	MaxAdaptLevel int

	// WindowLog overrides the codec window (0 = codec default). The
	// remaining tuning knobs are carried for interface compatibility;
	// they have no effect on the codec and are not reported.
	WindowLog    int
	ChainLog     int
	HashLog      int
	SearchLog    int
	MinMatch     int
	TargetLength int
	Strategy     int

	// LongDistanceMatching widens the match window for large inputs.
	// Its hash sub-parameters are carried for compatibility.
	LongDistanceMatching bool
	LdmHashLog           int
	LdmMinMatch          int
	LdmBucketSizeLog     int
	LdmHashRateLog       int

	// StreamSrcSize declares the source size when it cannot be
	// stat-ed (stdin pipes).
	StreamSrcSize uint64

	// SrcSizeHint estimates the source size. It is carried for
	// interface compatibility; parameter selection does not read it.
	SrcSizeHint int

	// TargetCBlockSize is carried for interface compatibility.
	TargetCBlockSize int

	// ContentSize pledges the source size into frame headers when it
	// is known.
	ContentSize bool

	// PatchFrom attaches the dictionary as a raw window prefix
	// instead of a trained dictionary.
	PatchFrom bool

	// MemLimit bounds decoder window memory; zero means the codec
	// default.
	MemLimit uint64

	// TestMode decodes and verifies without writing any output.
	TestMode bool

	// RemoveSrcFile unlinks each source after its file completes
	// successfully.
	RemoveSrcFile bool

	// Overwrite replaces existing destinations without prompting, and
	// enables raw passthrough for unknown formats to stdout.
	Overwrite bool

	// ExcludeCompressed skips sources that already carry a compressed
	// suffix.
	ExcludeCompressed bool

	// AllowBlockDevices permits block devices as sources.
	AllowBlockDevices bool
}

// NewPrefs returns the default preference set.
func NewPrefs() *Prefs {
	return &Prefs{
		Format:        FormatZstd,
		Level:         3,
		Sparse:        SparseAuto,
		ChecksumFlag:  true,
		DictIDFlag:    true,
		Workers:       1,
		MinAdaptLevel: zstdMinLevel,
		MaxAdaptLevel: zstdMaxLevel,
		ContentSize:   true,
	}
}

// Context is the mutable state of one batch run.
type Context struct {
	// TotalFiles is the number of sources in the batch.
	TotalFiles int

	// CurrentIndex is the index of the file being processed.
	CurrentIndex int

	// Processed counts files that completed successfully.
	Processed int

	// TotalBytesIn and TotalBytesOut aggregate across the batch.
	TotalBytesIn  uint64
	TotalBytesOut uint64

	// HasStdinInput is set when the source list contains StdinMark;
	// it disables interactive prompts (stdin is data).
	HasStdinInput bool

	// HasStdoutOutput is set when the destination is StdoutMark; it
	// silences result lines that would corrupt piped output.
	HasStdoutOutput bool
}

// NewContext returns a Context for a batch over the given sources.
func NewContext(sources []string) *Context {
	ctx := &Context{TotalFiles: len(sources)}
	if ctx.TotalFiles == 0 {
		ctx.TotalFiles = 1
	}
	for _, name := range sources {
		if name == StdinMark {
			ctx.HasStdinInput = true
			break
		}
	}
	return ctx
}
