// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/fabrun/fabrun/lib/clock"
)

// startUnreaped starts argv in its own process group without the reap
// goroutine, so the test controls when the exit status is collected.
func startUnreaped(t *testing.T, argv ...string) *Process {
	t.Helper()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting %v: %v", argv, err)
	}
	return &Process{
		argv:   argv,
		cmd:    cmd,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  clock.Real(),
		grace:  time.Second,
		done:   make(chan struct{}),
		state:  Running,
	}
}

func waitForZombie(t *testing.T, pid int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !childExited(pid) {
		if time.Now().After(deadline) {
			t.Fatalf("pid %d did not exit", pid)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestChildExited(t *testing.T) {
	running := startUnreaped(t, "sleep", "60")
	if childExited(running.PID()) {
		t.Fatal("childExited reported a sleeping child as exited")
	}
	go running.reap()
	if err := running.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !childExited(running.PID()) {
		t.Fatal("childExited reported a reaped child as running")
	}
}

func TestTerminateAfterNaturalExitKeepsExitError(t *testing.T) {
	process := startUnreaped(t, "sh", "-c", "exit 3")
	waitForZombie(t, process.PID())

	// The child has exited but has not been reaped yet.
	if err := process.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if state := process.State(); state != Running {
		t.Fatalf("State() = %v, want running until reaped", state)
	}

	go process.reap()
	err := process.Wait(t.Context())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Wait returned %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Fatalf("Code = %d, want 3", exitErr.Code)
	}
}

func TestReleaseAfterNaturalExitKeepsExitError(t *testing.T) {
	process := startUnreaped(t, "sh", "-c", "exit 4")
	waitForZombie(t, process.PID())

	go process.reap()
	if err := process.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	var exitErr *ExitError
	if err := process.Wait(t.Context()); !errors.As(err, &exitErr) || exitErr.Code != 4 {
		t.Fatalf("Wait returned %v, want *ExitError with code 4", err)
	}
}
