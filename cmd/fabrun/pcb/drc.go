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
	"github.com/fabrun/fabrun/lib/workflow"
)

type drcParams struct {
	cli.ConfigParams
	recordParams
	IgnoreUnconnected bool `flag:"ignore-unconnected" desc:"do not count unconnected pads toward the exit status"`
}

func drcCommand(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	var params drcParams
	command := &cli.Command{
		Name:    "drc",
		Summary: "Run the design rules check",
		Description: `Run the design rules check with zone refill and write the report to
<output-dir>/drc_result.rpt.

The exit status is the number of DRC errors plus unconnected pads
(only errors with --ignore-unconnected), capped at 255.`,
		Usage: "fabrun pcb drc <board> <output-dir> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("drc", &params)
		},
	}
	command.Run = func(ctx context.Context, args []string, logger *slog.Logger) error {
		if err := command.RequireArgs(args, 2, 2); err != nil {
			return err
		}
		cfg, err := params.LoadConfig()
		if err != nil {
			return err
		}
		logger = logger.With("command", "pcb/drc", "board", args[0])

		outcome, err := newRunner(cfg, logger).RunDRC(ctx, workflow.DRCRequest{
			Board:     args[0],
			OutputDir: args[1],
			Record:    params.Record,
		})
		if err != nil {
			return err
		}
		printDRCSummary(stdout, outcome, params.IgnoreUnconnected)

		defects := outcome.Result.Defects(params.IgnoreUnconnected)
		if defects > 0 {
			logger.Error("DRC failed", "errors", outcome.Result.Errors,
				"unconnected_pads", outcome.Result.UnconnectedPads, "ignore_unconnected", params.IgnoreUnconnected)
		}
		return cli.ExitWithCount(defects)
	}
	return command
}

// printDRCSummary writes one line per counter, colored when stdout is
// a terminal. Counters that do not affect the exit status are dimmed.
func printDRCSummary(w io.Writer, outcome workflow.DRCOutcome, ignoreUnconnected bool) {
	renderer := lipgloss.NewRenderer(w)
	pass := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	fail := renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	ignored := renderer.NewStyle().Faint(true)

	counter := func(count int, counted bool) string {
		text := fmt.Sprint(count)
		switch {
		case !counted:
			return ignored.Render(text + " (ignored)")
		case count > 0:
			return fail.Render(text)
		default:
			return pass.Render(text)
		}
	}

	result := outcome.Result
	fmt.Fprintf(w, "%s\n", outcome.Report)
	fmt.Fprintf(w, "  DRC errors:       %s\n", counter(result.Errors, true))
	fmt.Fprintf(w, "  unconnected pads: %s\n", counter(result.UnconnectedPads, !ignoreUnconnected))
}
