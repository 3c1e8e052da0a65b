// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"io"
	"regexp"
)

var (
	drcErrorsPattern      = regexp.MustCompile(`^\*\* Found ([0-9]+) DRC errors \*\*$`)
	drcUnconnectedPattern = regexp.MustCompile(`^\*\* Found ([0-9]+) unconnected pads \*\*$`)
)

// DRCResult is the summary of a design-rule check report.
type DRCResult struct {
	Errors          int `yaml:"drc_errors"`
	UnconnectedPads int `yaml:"unconnected_pads"`
}

// Defects is the process exit status for the report: every error, plus
// every unconnected pad unless ignoreUnconnected is set.
func (r DRCResult) Defects(ignoreUnconnected bool) int {
	if ignoreUnconnected {
		return r.Errors
	}
	return r.Errors + r.UnconnectedPads
}

// ParseDRC reads a DRC report. Both summary lines must be present; the
// first occurrence of each wins.
func ParseDRC(r io.Reader) (DRCResult, error) {
	lines, err := readLines(r)
	if err != nil {
		return DRCResult{}, &ParseError{Kind: "DRC", Err: err}
	}

	found, unconnected := -1, -1
	for _, line := range lines {
		if found >= 0 && unconnected >= 0 {
			break
		}
		if match := drcErrorsPattern.FindStringSubmatch(line); match != nil && found < 0 {
			found = atoi(match[1])
			continue
		}
		if match := drcUnconnectedPattern.FindStringSubmatch(line); match != nil && unconnected < 0 {
			unconnected = atoi(match[1])
		}
	}

	switch {
	case found < 0:
		return DRCResult{}, &ParseError{Kind: "DRC", Missing: `"** Found <N> DRC errors **" line`}
	case unconnected < 0:
		return DRCResult{}, &ParseError{Kind: "DRC", Missing: `"** Found <N> unconnected pads **" line`}
	}
	return DRCResult{Errors: found, UnconnectedPads: unconnected}, nil
}

// ParseDRCFile reads the DRC report at path.
func ParseDRCFile(path string) (DRCResult, error) {
	return parseFile(path, "DRC", ParseDRC)
}
