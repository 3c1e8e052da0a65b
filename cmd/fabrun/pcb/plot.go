// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package pcb

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/fabrun/fabrun/cmd/fabrun/cli"
	"github.com/fabrun/fabrun/lib/layer"
	"github.com/fabrun/fabrun/lib/workflow"
)

type plotParams struct {
	cli.ConfigParams
	Format string `flag:"file-format" desc:"output format: zip_gerbers or pdf" default:"zip_gerbers"`
}

func plotCommand(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	var params plotParams
	command := &cli.Command{
		Name:    "plot",
		Summary: "Plot Gerbers or a PDF without a display",
		Description: `Plot the named layers. zip_gerbers packs the Gerber files and the
drill file into <output-dir>/<board>_gerbers.zip; pdf writes
<output-dir>/<board>.pdf. A manifest.yaml with BLAKE3 digests of the
output is written next to it.

Without layers, Gerbers use the board's own plot settings and the PDF
shows copper, silkscreen, mask, and the board outline. Run
"fabrun pcb layers" for the layer names.`,
		Usage: "fabrun pcb plot <board> <output-dir> [layer...] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("plot", &params)
		},
	}
	command.Run = func(ctx context.Context, args []string, logger *slog.Logger) error {
		if err := command.RequireArgs(args, 2, -1); err != nil {
			return err
		}
		format, err := workflow.ParsePlotFormat(params.Format)
		if err != nil {
			return err
		}
		cfg, err := params.LoadConfig()
		if err != nil {
			return err
		}
		logger = logger.With("command", "pcb/plot", "board", args[0])

		outcome, err := newRunner(cfg, logger).Plot(ctx, workflow.PlotRequest{
			Board:     args[0],
			OutputDir: args[1],
			Format:    format,
			Layers:    args[2:],
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, outcome.Artifact)
		return nil
	}
	return command
}

func layersCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "layers",
		Summary: "List layer names and their default colors",
		Usage:   "fabrun pcb layers",
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("layers takes no arguments")
			}
			printLayers(stdout)
			return nil
		},
	}
}

// printLayers writes the layer table with a swatch of each layer's
// default color. Colors are dropped when w is not a terminal.
func printLayers(w io.Writer) {
	renderer := lipgloss.NewRenderer(w)
	name := renderer.NewStyle().Width(12)
	for _, id := range layer.All() {
		color := id.DefaultColor()
		rgb := color.RGB()
		swatch := renderer.NewStyle().Foreground(lipgloss.Color(rgb.Hex())).Render("■■")
		fmt.Fprintf(w, "%2d  %s %s %s %s\n", int(id), name.Render(id.Name()), swatch, rgb.Hex(), color)
	}
}
