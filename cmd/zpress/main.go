// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/zpress-io/zpress/cmd/zpress/cli"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// A cli.ExitError has already printed its diagnostics; don't
		// add a redundant "error:" line for it.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	return rootCommand().Execute(args)
}
