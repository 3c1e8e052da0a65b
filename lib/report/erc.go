// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"io"
	"regexp"
	"strings"
)

// The summary is the last non-empty line. Some tool versions close it
// with " **" and some do not.
var ercSummaryPattern = regexp.MustCompile(`^ \*\* ERC messages: ([0-9]+) +Errors ([0-9]+) +Warnings ([0-9]+)( +\*\*)?$`)

// ERCResult is the summary of an electrical-rule check report.
type ERCResult struct {
	Messages int `yaml:"messages"`
	Errors   int `yaml:"errors"`
	Warnings int `yaml:"warnings"`
}

// Defects is the process exit status for the report: the errors, plus
// the warnings when warningsAsErrors is set.
func (r ERCResult) Defects(warningsAsErrors bool) int {
	if warningsAsErrors {
		return r.Errors + r.Warnings
	}
	return r.Errors
}

// ParseERC reads an ERC report.
func ParseERC(r io.Reader) (ERCResult, error) {
	lines, err := readLines(r)
	if err != nil {
		return ERCResult{}, &ParseError{Kind: "ERC", Err: err}
	}

	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			last = lines[i]
			break
		}
	}

	match := ercSummaryPattern.FindStringSubmatch(last)
	if match == nil {
		return ERCResult{}, &ParseError{Kind: "ERC", Missing: `" ** ERC messages: <N>  Errors <N>  Warnings <N>" summary line`}
	}
	return ERCResult{
		Messages: atoi(match[1]),
		Errors:   atoi(match[2]),
		Warnings: atoi(match[3]),
	}, nil
}

// ParseERCFile reads the ERC report at path.
func ParseERCFile(path string) (ERCResult, error) {
	return parseFile(path, "ERC", ParseERC)
}
