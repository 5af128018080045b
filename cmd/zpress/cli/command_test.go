// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func testCommand(ran *[]string) *Command {
	return &Command{
		Name:    "zpress",
		Summary: "compress and decompress files",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("zpress", pflag.ContinueOnError)
			fs.BoolP("decompress", "d", false, "decompress")
			fs.Int("level", 3, "compression level")
			return fs
		},
		Run: func(args []string) error {
			*ran = args
			return nil
		},
	}
}

func TestExecuteRunsWithPositionalArgs(t *testing.T) {
	var ran []string
	cmd := testCommand(&ran)
	if err := cmd.Execute([]string{"-d", "a.zst", "b.zst"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(ran) != 2 || ran[0] != "a.zst" || ran[1] != "b.zst" {
		t.Errorf("positional args = %v", ran)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	var ran []string
	cmd := testCommand(&ran)
	err := cmd.Execute([]string{"--lvel", "5"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--level") {
		t.Errorf("expected suggestion of --level, got %q", err.Error())
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"lvel", "level", 1},
		{"force", "level", 5},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPrintHelpListsFlags(t *testing.T) {
	var ran []string
	cmd := testCommand(&ran)
	var out strings.Builder
	cmd.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"--decompress", "--level", "Usage:"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 2}
	if err.ExitCode() != 2 {
		t.Errorf("ExitCode = %d, want 2", err.ExitCode())
	}
}
