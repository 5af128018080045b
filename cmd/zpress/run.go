// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"

	"github.com/zpress-io/zpress/cmd/zpress/cli"
	"github.com/zpress-io/zpress/lib/clock"
	"github.com/zpress-io/zpress/lib/config"
	"github.com/zpress-io/zpress/lib/fileio"
)

// runRoot executes the parsed command: it folds config-file defaults
// under the flags, builds the preference bag, resolves the source and
// destination names, and drives the matching batch.
func runRoot(opts *options, changed func(string) bool, args []string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyConfig(opts, cfg, changed)

	prefs, err := buildPrefs(opts, changed)
	if err != nil {
		return err
	}

	display := fileio.NewDisplay(clock.Real())
	display.Verbosity = clampVerbosity(2 + opts.verbose - opts.quiet)
	if cfg.Verbosity != nil && !changed("verbose") && !changed("quiet") {
		display.Verbosity = clampVerbosity(*cfg.Verbosity)
	}
	switch opts.progress {
	case "always":
		display.Progress = fileio.ProgressAlways
	case "never":
		display.Progress = fileio.ProgressNever
	default:
		if !cli.StderrIsTerminal() {
			display.Progress = fileio.ProgressNever
		}
	}

	logLevel := slog.LevelWarn
	if display.Verbosity >= 5 {
		logLevel = slog.LevelDebug
	} else if display.Verbosity >= 4 {
		logLevel = slog.LevelInfo
	}
	logger := cli.NewCommandLogger(logLevel)

	sources := resolveSources(args)
	outFileName := opts.output
	if outFileName == "-" || opts.stdout {
		outFileName = fileio.StdoutMark
	}

	ctx := fileio.NewContext(sources)
	ctx.HasStdoutOutput = outFileName == fileio.StdoutMark
	if ctx.HasStdoutOutput && display.Verbosity == 2 && !changed("verbose") {
		// Result lines would interleave with piped output.
		display.Verbosity = 1
	}

	dictionary := opts.dictionary
	if opts.patchFrom != "" {
		dictionary = opts.patchFrom
	}

	logger.Debug("starting batch",
		"mode", batchMode(opts),
		"files", len(sources),
		"format", prefs.Format.String(),
		"level", prefs.Level,
		"workers", prefs.Workers,
		"adaptive", prefs.Adaptive)

	if err := fileio.EnsureOutputDirs(opts.outputDir, opts.outputDirMirror); err != nil {
		return err
	}

	var status int
	switch {
	case opts.list:
		status, err = fileio.ListFiles(prefs, display, sources)
	case opts.decompress || opts.test:
		if opts.test {
			prefs.TestMode = true
			if outFileName == "" {
				outFileName = fileio.NulMark
			}
		}
		status, err = fileio.DecompressMultiple(ctx, prefs, display, sources,
			opts.outputDirMirror, opts.outputDir, outFileName, dictionary)
	default:
		status, err = fileio.CompressMultiple(ctx, prefs, display, sources,
			opts.outputDirMirror, opts.outputDir, outFileName, prefs.Format.Suffix(),
			dictionary, prefs.Level)
	}
	if err != nil {
		return err
	}
	if status != 0 {
		return &cli.ExitError{Code: status}
	}
	return nil
}

// resolveSources maps the positional arguments onto source names; no
// arguments or "-" mean standard input.
func resolveSources(args []string) []string {
	if len(args) == 0 {
		return []string{fileio.StdinMark}
	}
	sources := make([]string, len(args))
	for i, arg := range args {
		if arg == "-" {
			sources[i] = fileio.StdinMark
		} else {
			sources[i] = arg
		}
	}
	return sources
}

func batchMode(opts *options) string {
	switch {
	case opts.list:
		return "list"
	case opts.test:
		return "test"
	case opts.decompress:
		return "decompress"
	default:
		return "compress"
	}
}

func clampVerbosity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}
