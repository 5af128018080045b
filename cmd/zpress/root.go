// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/pflag"

	"github.com/zpress-io/zpress/cmd/zpress/cli"
	"github.com/zpress-io/zpress/lib/config"
	"github.com/zpress-io/zpress/lib/fileio"
)

// options collects every flag value before it is folded into the
// fileio preference bag.
type options struct {
	decompress bool
	list       bool
	test       bool
	stdout     bool
	force      bool
	keep       bool
	remove     bool
	quiet      int
	verbose    int

	level   int
	format  string
	threads int
	output  string

	adapt    bool
	adaptMin int
	adaptMax int

	sparse   bool
	noSparse bool
	check    bool
	noCheck  bool

	long       int
	windowLog  int
	jobSize    int
	streamSize uint64
	sizeHint   int
	memory     uint64

	dictionary string
	patchFrom  string

	excludeCompressed bool
	allowBlockDevices bool

	outputDir       string
	outputDirMirror string
	progress        string
	configPath      string
}

func rootCommand() *cli.Command {
	opts := &options{}
	var flagSet *pflag.FlagSet
	return &cli.Command{
		Name:    "zpress",
		Summary: "zpress - fast multi-format compression",
		Usage:   "zpress [flags] [files...]",
		Description: `Compresses or decompresses files in the Zstandard, gzip, xz, lzma
and lz4 formats. With no files, or when a file is "-", standard input
is read. By default each source produces one destination next to it;
-o concatenates everything into a single output.`,
		Examples: []cli.Example{
			{Description: "compress a file to file.zst", Command: "zpress file"},
			{Description: "decompress back", Command: "zpress -d file.zst"},
			{Description: "adaptive compression of a stream to stdout", Command: "zpress --adapt -c - < data > data.zst"},
			{Description: "inspect frames without decoding", Command: "zpress -l archive.zst"},
		},
		Flags: func() *pflag.FlagSet {
			fs := newRootFlagSet(opts)
			flagSet = fs
			return fs
		},
		Run: func(args []string) error {
			changed := func(name string) bool { return flagSet != nil && flagSet.Changed(name) }
			return runRoot(opts, changed, args)
		},
	}
}

func newRootFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("zpress", pflag.ContinueOnError)
	fs.BoolVarP(&opts.decompress, "decompress", "d", false, "decompress input files")
	fs.BoolVarP(&opts.list, "list", "l", false, "list information about .zst files")
	fs.BoolVarP(&opts.test, "test", "t", false, "test compressed file integrity, writing nothing")
	fs.BoolVarP(&opts.stdout, "stdout", "c", false, "write to standard output, keep sources")
	fs.BoolVarP(&opts.force, "force", "f", false, "overwrite destinations without prompting")
	fs.BoolVarP(&opts.keep, "keep", "k", true, "keep source files (default)")
	fs.BoolVar(&opts.remove, "rm", false, "remove source files after successful operation")
	fs.CountVarP(&opts.quiet, "quiet", "q", "decrease verbosity")
	fs.CountVarP(&opts.verbose, "verbose", "v", "increase verbosity")

	fs.IntVar(&opts.level, "level", 3, "compression level")
	fs.StringVar(&opts.format, "format", "", "output format: zstd, gzip, xz, lzma, lz4")
	fs.IntVarP(&opts.threads, "threads", "T", 0, "codec worker threads (zstd)")
	fs.StringVarP(&opts.output, "output", "o", "", "single output file (\"-\" for stdout)")

	fs.BoolVar(&opts.adapt, "adapt", false, "adapt compression level to I/O conditions")
	fs.IntVar(&opts.adaptMin, "adapt-min", 0, "lower bound for --adapt")
	fs.IntVar(&opts.adaptMax, "adapt-max", 0, "upper bound for --adapt")

	fs.BoolVar(&opts.sparse, "sparse", false, "force sparse writes on decompression")
	fs.BoolVar(&opts.noSparse, "no-sparse", false, "disable sparse writes")
	fs.BoolVar(&opts.check, "check", true, "add/verify content checksums")
	fs.BoolVar(&opts.noCheck, "no-check", false, "disable content checksums")

	fs.IntVar(&opts.long, "long", 0, "enable long-distance matching with the given window log")
	fs.Lookup("long").NoOptDefVal = "27"
	fs.IntVar(&opts.windowLog, "window-log", 0, "explicit codec window log")
	fs.IntVar(&opts.jobSize, "block-size", 0, "per-job chunk size in bytes (zstd)")
	fs.Uint64Var(&opts.streamSize, "stream-size", 0, "declared size of an unseekable input stream")
	fs.IntVar(&opts.sizeHint, "size-hint", 0, "estimated input size (accepted; has no effect)")
	fs.Uint64Var(&opts.memory, "memory", 0, "memory usage limit for decompression windows")

	fs.StringVarP(&opts.dictionary, "dict", "D", "", "compression dictionary file")
	fs.StringVar(&opts.patchFrom, "patch-from", "", "reference file for delta compression")

	fs.BoolVar(&opts.excludeCompressed, "exclude-compressed", false, "skip sources that already look compressed")
	fs.BoolVar(&opts.allowBlockDevices, "allow-block-devices", false, "accept block devices as sources")

	fs.StringVarP(&opts.outputDir, "output-dir", "O", "", "write all outputs into this directory")
	fs.StringVar(&opts.outputDirMirror, "output-dir-mirror", "", "mirror the source tree under this directory")
	fs.StringVar(&opts.progress, "progress", "auto", "progress lines: auto, always, never")
	fs.StringVar(&opts.configPath, "config", "", "defaults file (also ZPRESS_CONFIG)")
	return fs
}

// applyConfig folds file defaults below explicit flag values.
func applyConfig(opts *options, cfg *config.Config, changed func(string) bool) {
	if cfg.Level != 0 && !changed("level") {
		opts.level = cfg.Level
	}
	if cfg.Format != "" && !changed("format") {
		opts.format = cfg.Format
	}
	if cfg.Threads != 0 && !changed("threads") {
		opts.threads = cfg.Threads
	}
	if cfg.Checksum != nil && !changed("check") && !changed("no-check") {
		opts.check = *cfg.Checksum
	}
	if cfg.Sparse != "" && !changed("sparse") && !changed("no-sparse") {
		opts.sparse = cfg.Sparse == "force"
		opts.noSparse = cfg.Sparse == "off"
	}
	if cfg.Progress != "" && !changed("progress") {
		opts.progress = cfg.Progress
	}
}

// buildPrefs folds the parsed options into the fileio preference bag.
// changed reports whether a named flag was given explicitly; --keep
// defaults to true, so it vetoes --rm only when typed.
func buildPrefs(opts *options, changed func(string) bool) (*fileio.Prefs, error) {
	prefs := fileio.NewPrefs()
	prefs.Level = opts.level
	prefs.Workers = opts.threads
	prefs.JobSize = opts.jobSize
	prefs.TestMode = opts.test
	prefs.Overwrite = opts.force
	prefs.RemoveSrcFile = opts.remove && !(changed("keep") && opts.keep)
	prefs.StreamSrcSize = opts.streamSize
	prefs.SrcSizeHint = opts.sizeHint
	prefs.MemLimit = opts.memory
	prefs.ExcludeCompressed = opts.excludeCompressed
	prefs.AllowBlockDevices = opts.allowBlockDevices
	prefs.ChecksumFlag = opts.check && !opts.noCheck
	prefs.WindowLog = opts.windowLog
	prefs.PatchFrom = opts.patchFrom != ""

	if opts.format != "" {
		format, err := fileio.ParseFormat(opts.format)
		if err != nil {
			return nil, err
		}
		prefs.Format = format
	}

	if opts.long > 0 {
		prefs.LongDistanceMatching = true
		if prefs.WindowLog == 0 {
			prefs.WindowLog = opts.long
		}
	}

	if opts.adapt {
		prefs.Adaptive = true
		if prefs.Workers < 1 {
			prefs.Workers = 1
		}
		if opts.adaptMin != 0 {
			prefs.MinAdaptLevel = opts.adaptMin
		}
		if opts.adaptMax != 0 {
			prefs.MaxAdaptLevel = opts.adaptMax
		}
	}

	switch {
	case opts.noSparse:
		prefs.Sparse = fileio.SparseOff
	case opts.sparse:
		prefs.Sparse = fileio.SparseForce
	}
	return prefs, nil
}
