// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package schematic implements the fabrun schematic subcommands: plot
// export and the electrical rules check, both driven through the
// schematic editor on a virtual display.
package schematic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/fabrun/fabrun/cmd/fabrun/cli"
	"github.com/fabrun/fabrun/lib/config"
	"github.com/fabrun/fabrun/lib/workflow"
)

// workflows is the part of *workflow.Runner these commands use.
type workflows interface {
	ExportSchematic(ctx context.Context, request workflow.SchematicExport) (string, error)
	RunERC(ctx context.Context, request workflow.ERCRequest) (workflow.ERCOutcome, error)
}

type runnerFactory func(cfg *config.Config, logger *slog.Logger) workflows

func newWorkflowRunner(cfg *config.Config, logger *slog.Logger) workflows {
	return workflow.New(cfg, logger)
}

// Command returns the "schematic" command group.
func Command() *cli.Command {
	return command(newWorkflowRunner, os.Stdout)
}

func command(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "schematic",
		Summary: "Export and check schematics",
		Description: `Drive the schematic editor on a private virtual display.

Each command starts its own X server, runs the editor against one
schematic, and stops both when done. Pass --record to keep a screencast
of the session next to the outputs.`,
		Subcommands: []*cli.Command{
			exportCommand(newRunner, stdout),
			ercCommand(newRunner, stdout),
		},
		Examples: []cli.Example{
			{
				Description: "Plot every sheet to one PDF",
				Command:     "fabrun schematic export amplifier.sch build/ --all-pages",
			},
			{
				Description: "Fail when the check reports errors or warnings",
				Command:     "fabrun schematic erc amplifier.sch build/ --warnings-as-errors",
			},
		},
	}
}

type exportParams struct {
	cli.ConfigParams
	Format   string `flag:"file-format" desc:"output format: svg or pdf" default:"svg"`
	AllPages bool   `flag:"all-pages" desc:"plot all sheets instead of only the root sheet"`
	Record   bool   `flag:"record" desc:"record a screencast of the session"`
}

func exportCommand(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	var params exportParams
	command := &cli.Command{
		Name:    "export",
		Summary: "Plot a schematic to PDF or SVG",
		Usage:   "fabrun schematic export <schematic> <output-dir> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export", &params)
		},
	}
	command.Run = func(ctx context.Context, args []string, logger *slog.Logger) error {
		if err := command.RequireArgs(args, 2, 2); err != nil {
			return err
		}
		format, err := workflow.ParseSchematicFormat(params.Format)
		if err != nil {
			return err
		}
		cfg, err := params.LoadConfig()
		if err != nil {
			return err
		}
		logger = logger.With("command", "schematic/export", "schematic", args[0])

		output, err := newRunner(cfg, logger).ExportSchematic(ctx, workflow.SchematicExport{
			Schematic: args[0],
			OutputDir: args[1],
			Format:    format,
			AllPages:  params.AllPages,
			Record:    params.Record,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, output)
		return nil
	}
	return command
}

type ercParams struct {
	cli.ConfigParams
	WarningsAsErrors bool `flag:"warnings-as-errors" desc:"count warnings toward the exit status"`
	Record           bool `flag:"record" desc:"record a screencast of the session"`
}

func ercCommand(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	var params ercParams
	command := &cli.Command{
		Name:    "erc",
		Summary: "Run the electrical rules check",
		Description: `Run the electrical rules check and write its report to the output
directory.

The exit status is the number of ERC errors (plus warnings with
--warnings-as-errors), capped at 255.`,
		Usage: "fabrun schematic erc <schematic> <output-dir> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("erc", &params)
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
		logger = logger.With("command", "schematic/erc", "schematic", args[0])

		outcome, err := newRunner(cfg, logger).RunERC(ctx, workflow.ERCRequest{
			Schematic: args[0],
			OutputDir: args[1],
			Record:    params.Record,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %d errors, %d warnings\n", outcome.Report, outcome.Result.Errors, outcome.Result.Warnings)

		defects := outcome.Result.Defects(params.WarningsAsErrors)
		if defects > 0 {
			logger.Error("ERC failed", "errors", outcome.Result.Errors, "warnings", outcome.Result.Warnings,
				"warnings_as_errors", params.WarningsAsErrors)
		}
		return cli.ExitWithCount(defects)
	}
	return command
}
