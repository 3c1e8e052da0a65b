// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cleanDRC = `** Drc report for board.kicad_pcb **
** Created on 2026-01-01 10:00:00 **

** Found 0 DRC errors **

** Found 0 unconnected pads **

** End of Report **
`

const failingDRC = `** Drc report for board.kicad_pcb **
** Created on 2026-01-01 10:00:00 **

** Found 3 DRC errors **
ErrType(45): Courtyards overlap
    @(144.018 mm, 100.330 mm): Footprint C3 on F.Cu
ErrType(45): Courtyards overlap
ErrType(2): Via too close to track

** Found 2 unconnected pads **
ErrType(11): Unconnected pads
ErrType(11): Unconnected pads

** End of Report **
`

func TestParseDRC(t *testing.T) {
	tests := []struct {
		name              string
		report            string
		want              DRCResult
		defects           int
		ignoreUnconnected int
	}{
		{"clean", cleanDRC, DRCResult{0, 0}, 0, 0},
		{"failing", failingDRC, DRCResult{3, 2}, 5, 3},
		{"crlf", strings.ReplaceAll(failingDRC, "\n", "\r\n"), DRCResult{3, 2}, 5, 3},
		{"first occurrence wins", "** Found 1 DRC errors **\n** Found 4 unconnected pads **\n** Found 9 DRC errors **\n", DRCResult{1, 4}, 5, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseDRC(strings.NewReader(test.report))
			if err != nil {
				t.Fatalf("ParseDRC: %v", err)
			}
			if got != test.want {
				t.Fatalf("result = %+v, want %+v", got, test.want)
			}
			if defects := got.Defects(false); defects != test.defects {
				t.Errorf("Defects(false) = %d, want %d", defects, test.defects)
			}
			if defects := got.Defects(true); defects != test.ignoreUnconnected {
				t.Errorf("Defects(true) = %d, want %d", defects, test.ignoreUnconnected)
			}
		})
	}
}

func TestParseDRCMissingMarkers(t *testing.T) {
	tests := []struct {
		name    string
		report  string
		missing string
	}{
		{"empty", "", "DRC errors"},
		{"no unconnected line", "** Found 3 DRC errors **\n", "unconnected pads"},
		{"no errors line", "** Found 2 unconnected pads **\n", "DRC errors"},
		{"indented marker", "  ** Found 3 DRC errors **\n** Found 2 unconnected pads **\n", "DRC errors"},
		{"truncated", "** Found 3 DRC errors\n", "DRC errors"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseDRC(strings.NewReader(test.report))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if parseErr.Kind != "DRC" || !strings.Contains(parseErr.Missing, test.missing) {
				t.Fatalf("parse error = %+v, want missing %q", parseErr, test.missing)
			}
		})
	}
}

func TestParseERC(t *testing.T) {
	tests := []struct {
		name             string
		report           string
		want             ERCResult
		defects          int
		warningsAsErrors int
	}{
		{
			name:             "one error",
			report:           "ERC report (2026-01-01)\n\n***** Sheet /\nErrType(3): Pin connected to other pins, but not driven by any Pin\n\n ** ERC messages: 4   Errors 1   Warnings 0\n",
			want:             ERCResult{Messages: 4, Errors: 1, Warnings: 0},
			defects:          1,
			warningsAsErrors: 1,
		},
		{
			name:             "warnings",
			report:           " ** ERC messages: 5  Errors 2  Warnings 3\n\n\n",
			want:             ERCResult{Messages: 5, Errors: 2, Warnings: 3},
			defects:          2,
			warningsAsErrors: 5,
		},
		{
			name:             "closing stars",
			report:           " ** ERC messages: 0  Errors 0  Warnings 0 **\n",
			want:             ERCResult{},
			defects:          0,
			warningsAsErrors: 0,
		},
		{
			name:             "crlf",
			report:           " ** ERC messages: 2  Errors 0  Warnings 2\r\n",
			want:             ERCResult{Messages: 2, Warnings: 2},
			defects:          0,
			warningsAsErrors: 2,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseERC(strings.NewReader(test.report))
			if err != nil {
				t.Fatalf("ParseERC: %v", err)
			}
			if got != test.want {
				t.Fatalf("result = %+v, want %+v", got, test.want)
			}
			if defects := got.Defects(false); defects != test.defects {
				t.Errorf("Defects(false) = %d, want %d", defects, test.defects)
			}
			if defects := got.Defects(true); defects != test.warningsAsErrors {
				t.Errorf("Defects(true) = %d, want %d", defects, test.warningsAsErrors)
			}
		})
	}
}

func TestParseERCSummaryMustBeLast(t *testing.T) {
	reports := []string{
		"",
		"\n\n",
		" ** ERC messages: 4   Errors 1   Warnings 0\nTrailing text\n",
		"** ERC messages: 4   Errors 1   Warnings 0\n",
	}
	for _, report := range reports {
		_, err := ParseERC(strings.NewReader(report))
		var parseErr *ParseError
		if !errors.As(err, &parseErr) || parseErr.Kind != "ERC" {
			t.Errorf("ParseERC(%q) error = %v, want ERC *ParseError", report, err)
		}
	}
}

func TestParseFiles(t *testing.T) {
	directory := t.TempDir()
	drcPath := filepath.Join(directory, "drc_result.rpt")
	if err := os.WriteFile(drcPath, []byte(failingDRC), 0o644); err != nil {
		t.Fatal(err)
	}
	drc, err := ParseDRCFile(drcPath)
	if err != nil || drc != (DRCResult{3, 2}) {
		t.Fatalf("ParseDRCFile = %+v, %v", drc, err)
	}

	ercPath := filepath.Join(directory, "board.erc")
	if err := os.WriteFile(ercPath, []byte("garbage\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = ParseERCFile(ercPath)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Path != ercPath {
		t.Fatalf("ParseERCFile error = %v, want *ParseError naming %s", err, ercPath)
	}
	if !strings.Contains(err.Error(), ercPath) {
		t.Fatalf("error %q does not name the file", err)
	}

	_, err = ParseDRCFile(filepath.Join(directory, "missing.rpt"))
	if !errors.As(err, &parseErr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file error = %v", err)
	}
}
