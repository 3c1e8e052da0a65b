// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command represents a CLI command or subcommand.
type Command struct {
	// Name is the command name as typed by the user (e.g., "pcb", "drc").
	Name string

	// Summary is a one-line description shown in the parent's help listing.
	Summary string

	// Description is a detailed multi-line description shown in the command's
	// own help output.
	Description string

	// Usage is the usage string (e.g., "fabrun pcb drc <board> <output-dir>").
	// If empty, it is synthesized from the command path and subcommands.
	Usage string

	// Examples are shown in the help output after the description.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet for this command. Called
	// lazily on first use. If nil, the command accepts no flags.
	Flags func() *pflag.FlagSet

	// Subcommands are nested commands dispatched by the first positional arg.
	Subcommands []*Command

	// Run executes the command with the remaining args (after flag parsing).
	// Exactly one of Run or Subcommands should be set. If both are set,
	// Run is used when no subcommand matches.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	// Output receives help text. Defaults to os.Stderr; inherited by
	// subcommands during dispatch.
	Output io.Writer

	// parent is set during dispatch to build the full command path for help.
	parent *Command
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute parses args and dispatches to the appropriate subcommand or Run
// function. This is the main entry point for the command tree.
func (c *Command) Execute(ctx context.Context, args []string, logger *slog.Logger) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.output())
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name := args[0]
		for _, sub := range c.Subcommands {
			if sub.Name == name {
				sub.parent = c
				if sub.Output == nil {
					sub.Output = c.Output
				}
				return sub.Execute(ctx, args[1:], logger)
			}
		}

		// Unknown subcommand: suggest the closest match.
		suggestion := suggestCommand(name, c.Subcommands)
		if suggestion != "" {
			return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
				name, suggestion, c.fullName())
		}
		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.",
			name, c.fullName())
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(c.output())
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("subcommand required (got flag %q)", args[0])
	}

	if c.Flags != nil {
		flagSet := c.Flags()

		// We format our own error messages with suggestions.
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			if err == pflag.ErrHelp {
				c.PrintHelp(c.output())
				return nil
			}
			errMsg := err.Error()
			if strings.Contains(errMsg, "unknown flag") {
				// A fresh flag set: the failed parse may have consumed state.
				suggestion := suggestFlag(args, c.Flags())
				if suggestion != "" {
					return fmt.Errorf("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
						errMsg, suggestion, c.fullName())
				}
			}
			return fmt.Errorf("%s\n\nRun '%s --help' for usage.",
				errMsg, c.fullName())
		}
		args = flagSet.Args()
	}

	if c.Run != nil {
		if logger == nil {
			logger = slog.Default()
		}
		return c.Run(ctx, args, logger)
	}

	c.PrintHelp(c.output())
	return fmt.Errorf("no action defined for %q", c.fullName())
}

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	if c.Usage != "" {
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	} else if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	} else {
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		if usage := flagSet.FlagUsages(); usage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usage)
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// ArgsError reports a wrong number of positional arguments.
type ArgsError struct {
	Command string
	Usage   string
	Got     int
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("%s: wrong number of arguments (%d)\n\nUsage:\n  %s", e.Command, e.Got, e.Usage)
}

// RequireArgs checks that the command received between min and max
// positional arguments. A negative max means no upper bound.
func (c *Command) RequireArgs(args []string, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		usage := c.Usage
		if usage == "" {
			usage = c.fullName()
		}
		return &ArgsError{Command: c.fullName(), Usage: usage, Got: len(args)}
	}
	return nil
}

func (c *Command) output() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stderr
}

// fullName returns the complete command path (e.g., "fabrun pcb drc").
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

// isHelpFlag returns true for common help flag variants.
func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
