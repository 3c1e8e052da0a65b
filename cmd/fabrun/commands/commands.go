// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete fabrun command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fabrun/fabrun/cmd/fabrun/cli"
	"github.com/fabrun/fabrun/cmd/fabrun/pcb"
	"github.com/fabrun/fabrun/cmd/fabrun/schematic"
	"github.com/fabrun/fabrun/lib/version"
)

// Root builds and returns the complete fabrun command tree.
func Root() *cli.Command {
	return root(os.Stdout)
}

func root(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name: "fabrun",
		Description: `fabrun: headless KiCad automation.

Runs the schematic and board editors on a private virtual X display and
drives their dialogs with synthetic keystrokes. Every wait is bounded,
and check commands exit with the number of defects found.

Configuration comes from --config, else $FABRUN_CONFIG, else built-in
defaults. Set FABRUN_DEBUG=1 for debug logging.`,
		Subcommands: []*cli.Command{
			schematic.Command(),
			pcb.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Fprintf(stdout, "fabrun %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Plot a schematic and check it",
				Command:     "fabrun schematic export amplifier.sch build/ && fabrun schematic erc amplifier.sch build/",
			},
			{
				Description: "Check a board and plot fabrication outputs",
				Command:     "fabrun pcb drc amplifier.kicad_pcb build/ && fabrun pcb plot amplifier.kicad_pcb build/",
			},
		},
	}
}
