// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fabrun/fabrun/cmd/fabrun/cli"
	"github.com/fabrun/fabrun/cmd/fabrun/commands"
	"github.com/fabrun/fabrun/lib/process"
)

func main() {
	// Cancellation still runs every scoped release, so an interrupted
	// run leaves no X server or editor behind.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().Execute(ctx, os.Args[1:], cli.NewCommandLogger())
	stop()
	if err != nil {
		// Check commands exit with their defect count and have
		// already reported it.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}
