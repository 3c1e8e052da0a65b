// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package schematic

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/fabrun/fabrun/cmd/fabrun/cli"
	"github.com/fabrun/fabrun/lib/config"
	"github.com/fabrun/fabrun/lib/report"
	"github.com/fabrun/fabrun/lib/workflow"
)

type fakeWorkflows struct {
	export    workflow.SchematicExport
	erc       workflow.ERCRequest
	ercResult report.ERCResult
	err       error
}

func (f *fakeWorkflows) ExportSchematic(_ context.Context, request workflow.SchematicExport) (string, error) {
	f.export = request
	return request.OutputDir + "/amplifier." + string(request.Format), f.err
}

func (f *fakeWorkflows) RunERC(_ context.Context, request workflow.ERCRequest) (workflow.ERCOutcome, error) {
	f.erc = request
	return workflow.ERCOutcome{Report: request.OutputDir + "/amplifier.erc", Result: f.ercResult}, f.err
}

func run(t *testing.T, fake *fakeWorkflows, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	var stdout bytes.Buffer
	factory := func(*config.Config, *slog.Logger) workflows { return fake }
	root := command(factory, &stdout)
	root.Output = &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	err := root.Execute(t.Context(), args, logger)
	return stdout.String(), err
}

func TestExportPassesFlags(t *testing.T) {
	fake := &fakeWorkflows{}
	stdout, err := run(t, fake, "export", "amplifier.sch", "out", "--file_format", "pdf", "--all-pages", "--record")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := workflow.SchematicExport{
		Schematic: "amplifier.sch",
		OutputDir: "out",
		Format:    workflow.SchematicPDF,
		AllPages:  true,
		Record:    true,
	}
	if fake.export != want {
		t.Errorf("request = %+v, want %+v", fake.export, want)
	}
	if stdout != "out/amplifier.pdf\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestExportDefaultsToSVG(t *testing.T) {
	fake := &fakeWorkflows{}
	if _, err := run(t, fake, "export", "amplifier.sch", "out"); err != nil {
		t.Fatalf("export: %v", err)
	}
	if fake.export.Format != workflow.SchematicSVG || fake.export.AllPages {
		t.Errorf("request = %+v", fake.export)
	}
}

func TestExportRejectsBadInvocations(t *testing.T) {
	var argsErr *cli.ArgsError
	if _, err := run(t, &fakeWorkflows{}, "export", "amplifier.sch"); !errors.As(err, &argsErr) {
		t.Errorf("missing output dir: %v", err)
	}
	if _, err := run(t, &fakeWorkflows{}, "export", "amplifier.sch", "out", "--file-format", "png"); err == nil ||
		!strings.Contains(err.Error(), "png") {
		t.Errorf("png format: %v", err)
	}
}

func TestERCExitStatus(t *testing.T) {
	result := report.ERCResult{Messages: 5, Errors: 2, Warnings: 3}
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"errors only", nil, 2},
		{"warnings as errors", []string{"--warnings_as_errors"}, 5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := &fakeWorkflows{ercResult: result}
			stdout, err := run(t, fake, append([]string{"erc", "amplifier.sch", "out"}, test.args...)...)
			var exitErr *cli.ExitError
			if !errors.As(err, &exitErr) || exitErr.Code != test.code {
				t.Fatalf("error = %v, want exit code %d", err, test.code)
			}
			if stdout != "out/amplifier.erc: 2 errors, 3 warnings\n" {
				t.Errorf("stdout = %q", stdout)
			}
		})
	}
}

func TestERCCleanExitsZero(t *testing.T) {
	fake := &fakeWorkflows{ercResult: report.ERCResult{Warnings: 1}}
	if _, err := run(t, fake, "erc", "amplifier.sch", "out"); err != nil {
		t.Errorf("warnings without --warnings-as-errors: %v", err)
	}
}

func TestWorkflowErrorsPropagate(t *testing.T) {
	failure := &workflow.PreconditionError{Path: "amplifier.sch", Reason: "does not exist"}
	_, err := run(t, &fakeWorkflows{err: failure}, "erc", "amplifier.sch", "out")
	var precondition *workflow.PreconditionError
	if !errors.As(err, &precondition) {
		t.Errorf("error = %v, want *workflow.PreconditionError", err)
	}
}
