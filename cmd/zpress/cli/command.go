// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is a CLI command: flags, help text, and a run function.
type Command struct {
	// Name is the command name as typed by the user.
	Name string

	// Summary is a one-line description shown at the top of help.
	Summary string

	// Description is a detailed multi-line description shown in the
	// command's help output.
	Description string

	// Usage is the usage string. If empty, it is synthesized from the
	// name.
	Usage string

	// Examples are shown in the help output after the description.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet. Called lazily on
	// first use. If nil, the command accepts no flags.
	Flags func() *pflag.FlagSet

	// Run executes the command with the remaining args after flag
	// parsing.
	Run func(args []string) error
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute parses args and runs the command. Help flags short-circuit
// to the help output.
func (c *Command) Execute(args []string) error {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if isHelpFlag(arg) {
			c.PrintHelp(os.Stderr)
			return nil
		}
	}

	if c.Flags != nil {
		flagSet := c.Flags()

		// Suppress pflag's default error output and usage dump; we
		// format our own message with a suggestion.
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			message := err.Error()
			if strings.Contains(message, "unknown flag") {
				if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
					return fmt.Errorf("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
						message, suggestion, c.Name)
				}
			}
			return fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, c.Name)
		}
		args = flagSet.Args()
	}

	if c.Run != nil {
		return c.Run(args)
	}
	c.PrintHelp(os.Stderr)
	return fmt.Errorf("no action defined for %q", c.Name)
}

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}
	usage := c.Usage
	if usage == "" {
		usage = c.Name + " [flags] [files...]"
	}
	fmt.Fprintf(w, "Usage: %s\n", usage)

	if c.Description != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(c.Description))
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			fmt.Fprintf(w, "  # %s\n  %s\n", example.Description, example.Command)
		}
	}

	if c.Flags != nil {
		fmt.Fprintf(w, "\nFlags:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			short := "  "
			if f.Shorthand != "" {
				short = "-" + f.Shorthand
			}
			fmt.Fprintf(tw, "  %s\t--%s\t%s\n", short, f.Name, f.Usage)
		})
		tw.Flush()
	}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// suggestFlag finds the closest known flag to the first unknown one.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var unknown string
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") && len(arg) > 2 {
			name := strings.TrimPrefix(arg, "--")
			if idx := strings.IndexByte(name, '='); idx >= 0 {
				name = name[:idx]
			}
			if flagSet.Lookup(name) == nil {
				unknown = name
				break
			}
		}
	}
	if unknown == "" {
		return ""
	}

	best := ""
	bestDistance := len(unknown)/2 + 1
	flagSet.VisitAll(func(f *pflag.Flag) {
		if d := editDistance(unknown, f.Name); d < bestDistance {
			bestDistance = d
			best = "--" + f.Name
		}
	})
	return best
}

// editDistance is the Levenshtein distance between two short strings.
func editDistance(a, b string) int {
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[j] = min3(current[j-1]+1, previous[j]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
