// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package xdo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fabrun/fabrun/lib/supervisor"
)

// Invocation is one run of an X tool.
type Invocation struct {
	// Argv is the program and its arguments.
	Argv []string

	// Stdin is written to the program's standard input.
	Stdin string

	// Detached marks programs that leave a background child holding
	// their standard streams (xclip keeps serving the selection after
	// it returns). Output is not captured for detached invocations;
	// capturing it would block until the background child exits.
	Detached bool
}

// Runner executes X tool invocations.
type Runner interface {
	// Run executes the invocation and returns its standard output. A
	// program that cannot be started yields *supervisor.LaunchError; a
	// program that exits non-zero yields *CommandError.
	Run(ctx context.Context, invocation Invocation) ([]byte, error)
}

// CommandError reports an X tool that ran and exited non-zero.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	message := fmt.Sprintf("%s exited with code %d", strings.Join(e.Argv, " "), e.ExitCode)
	if e.Stderr != "" {
		message += " (" + e.Stderr + ")"
	}
	return message
}

// ExecRunner runs X tools as child processes of fabrun.
type ExecRunner struct {
	// Env is appended to the parent environment for every invocation.
	// It must contain the DISPLAY of the target display.
	Env []string
}

// outputDrainDelay bounds how long Run waits for stdout and stderr to
// close after the program exits.
const outputDrainDelay = 2 * time.Second

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, invocation Invocation) ([]byte, error) {
	if len(invocation.Argv) == 0 {
		return nil, &supervisor.LaunchError{Err: fmt.Errorf("empty argument vector")}
	}
	path, err := exec.LookPath(invocation.Argv[0])
	if err != nil {
		return nil, &supervisor.LaunchError{Argv: invocation.Argv, Err: err}
	}

	cmd := exec.CommandContext(ctx, path, invocation.Argv[1:]...)
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdin = strings.NewReader(invocation.Stdin)
	cmd.WaitDelay = outputDrainDelay

	var stdout, stderr bytes.Buffer
	if !invocation.Detached {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &CommandError{
				Argv:     invocation.Argv,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return nil, &supervisor.LaunchError{Argv: invocation.Argv, Err: err}
	}
	return stdout.Bytes(), nil
}
