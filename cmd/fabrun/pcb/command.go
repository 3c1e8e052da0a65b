// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package pcb implements the fabrun pcb subcommands. The design rules
// check and the Specctra export and import drive the board editor on a
// virtual display; plot runs headless.
package pcb

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fabrun/fabrun/cmd/fabrun/cli"
	"github.com/fabrun/fabrun/lib/config"
	"github.com/fabrun/fabrun/lib/workflow"
)

// workflows is the part of *workflow.Runner these commands use.
type workflows interface {
	RunDRC(ctx context.Context, request workflow.DRCRequest) (workflow.DRCOutcome, error)
	ExportDSN(ctx context.Context, request workflow.DSNExport) (string, error)
	ImportSES(ctx context.Context, request workflow.SESImport) (string, error)
	Plot(ctx context.Context, request workflow.PlotRequest) (workflow.PlotOutcome, error)
}

type runnerFactory func(cfg *config.Config, logger *slog.Logger) workflows

func newWorkflowRunner(cfg *config.Config, logger *slog.Logger) workflows {
	return workflow.New(cfg, logger)
}

// Command returns the "pcb" command group.
func Command() *cli.Command {
	return command(newWorkflowRunner, os.Stdout)
}

func command(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "pcb",
		Summary: "Check, route, and plot boards",
		Description: `Drive the board editor on a private virtual display, or plot a board
headless.

drc, export-dsn, and import-ses each start their own X server and
editor and stop both when done. plot needs no display.`,
		Subcommands: []*cli.Command{
			drcCommand(newRunner, stdout),
			exportDSNCommand(newRunner, stdout),
			importSESCommand(newRunner, stdout),
			plotCommand(newRunner, stdout),
			layersCommand(stdout),
		},
		Examples: []cli.Example{
			{
				Description: "Check a board, ignoring unrouted connections",
				Command:     "fabrun pcb drc amplifier.kicad_pcb build/ --ignore-unconnected",
			},
			{
				Description: "Round-trip through an external autorouter",
				Command:     "fabrun pcb export-dsn amplifier.kicad_pcb build/amplifier.dsn",
			},
			{
				Command: "fabrun pcb import-ses amplifier.kicad_pcb build/amplifier.ses --output-file build/routed.kicad_pcb",
			},
			{
				Description: "Plot copper and silkscreen Gerbers into one archive",
				Command:     "fabrun pcb plot amplifier.kicad_pcb build/ F.Cu B.Cu F.SilkS B.SilkS Edge.Cuts",
			},
		},
	}
}

// recordParams is shared by the commands that open a display.
type recordParams struct {
	Record bool `flag:"record" desc:"record a screencast of the session"`
}
