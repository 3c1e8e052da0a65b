// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package pcb

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/fabrun/fabrun/cmd/fabrun/cli"
	"github.com/fabrun/fabrun/lib/workflow"
)

type exportDSNParams struct {
	cli.ConfigParams
	recordParams
}

func exportDSNCommand(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	var params exportDSNParams
	command := &cli.Command{
		Name:    "export-dsn",
		Summary: "Export a Specctra DSN file for an autorouter",
		Description: `Export the board to a Specctra DSN file. The output file must not
exist yet.`,
		Usage: "fabrun pcb export-dsn <board> <output-file> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export-dsn", &params)
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
		logger = logger.With("command", "pcb/export-dsn", "board", args[0])

		output, err := newRunner(cfg, logger).ExportDSN(ctx, workflow.DSNExport{
			Board:  args[0],
			Output: args[1],
			Record: params.Record,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, output)
		return nil
	}
	return command
}

type importSESParams struct {
	cli.ConfigParams
	recordParams
	OutputFile string `flag:"output-file" desc:"save the routed board here instead of overwriting <board>"`
}

func importSESCommand(newRunner runnerFactory, stdout io.Writer) *cli.Command {
	var params importSESParams
	command := &cli.Command{
		Name:    "import-ses",
		Summary: "Merge a Specctra session file into a board",
		Description: `Merge an autorouter's Specctra session (SES) file into the board and
save it, in place unless --output-file names a new file.`,
		Usage: "fabrun pcb import-ses <board> <ses-file> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("import-ses", &params)
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
		logger = logger.With("command", "pcb/import-ses", "board", args[0])

		written, err := newRunner(cfg, logger).ImportSES(ctx, workflow.SESImport{
			Board:  args[0],
			SES:    args[1],
			Output: params.OutputFile,
			Record: params.Record,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, written)
		return nil
	}
	return command
}
