// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// DebugEnvironmentVariable enables debug logging when set to a
// non-empty value.
const DebugEnvironmentVariable = "FABRUN_DEBUG"

// NewCommandLogger creates the logger every workflow logs through.
// When stderr is a terminal, uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected (CI, scripts), uses
// slog.JSONHandler for machine-parseable output.
//
// Callers scope the logger with command-specific context via With():
//
//	logger = logger.With("command", "pcb/drc", "board", board)
func NewCommandLogger() *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), os.Getenv(DebugEnvironmentVariable) != "")
}

func newLogger(w io.Writer, terminal, debug bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		options.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if terminal {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}
