// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package report parses the design-rule and electrical-rule check
// reports the PCB tools write, and turns them into defect counts.
//
// Only the summary markers are interpreted. The body of a report
// (individual violations) is free text meant for humans and is kept
// verbatim on disk for them.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError reports a report that lacks its summary markers, which
// happens when the tool was interrupted or its format changed.
type ParseError struct {
	// Kind is "DRC" or "ERC".
	Kind string

	// Path is the report file, when parsing from a file.
	Path string

	// Missing describes the marker that was not found.
	Missing string

	// Err is an underlying read error, if any.
	Err error
}

func (e *ParseError) Error() string {
	source := "report"
	if e.Path != "" {
		source = e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("parsing %s %s: %v", e.Kind, source, e.Err)
	}
	return fmt.Sprintf("parsing %s %s: %s not found", e.Kind, source, e.Missing)
}

func (e *ParseError) Unwrap() error { return e.Err }

// readLines returns the lines of r with line terminators removed.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

func parseFile[T any](path, kind string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, &ParseError{Kind: kind, Path: path, Err: err}
	}
	defer file.Close()

	result, err := parse(file)
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		parseErr.Path = path
	}
	return result, err
}

func atoi(text string) int {
	// The patterns only admit [0-9]+; overflow saturates.
	value, err := strconv.Atoi(text)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return value
}
