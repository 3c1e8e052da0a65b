// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fabrun/fabrun/lib/clock"
)

// DefaultTerminateGrace is how long Release waits after SIGTERM before
// sending SIGKILL.
const DefaultTerminateGrace = 5 * time.Second

// State is the lifecycle position of a supervised process.
type State int

const (
	// Running means the process has been started and has not been
	// asked to stop.
	Running State = iota

	// Terminated means SIGTERM (or SIGKILL) has been sent but the
	// process has not been reaped yet.
	Terminated

	// Reaped means the process has exited and its exit status has been
	// collected. No OS resources remain.
	Reaped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	case Reaped:
		return "reaped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config describes a process to start.
type Config struct {
	// Argv is the command and its arguments. Argv[0] is resolved
	// against PATH.
	Argv []string

	// Env is appended to the parent environment. Later entries win,
	// so "DISPLAY=:5" here overrides an inherited DISPLAY.
	Env []string

	// Dir is the working directory. Empty means the parent's.
	Dir string

	// Stdin, Stdout and Stderr are connected to the child. Nil means
	// /dev/null. When a field is not an *os.File, exec creates a pipe
	// that is closed once the child is reaped.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ExtraFiles are inherited by the child as fd 3, 4, ... . The
	// parent keeps ownership and should close its copies once Start
	// returns.
	ExtraFiles []*os.File

	// TerminateGrace is the SIGTERM-to-SIGKILL delay used by Release.
	// Zero means DefaultTerminateGrace.
	TerminateGrace time.Duration

	// Logger receives lifecycle events. Nil means slog.Default().
	Logger *slog.Logger

	// Clock times the grace period. Nil means clock.Real().
	Clock clock.Clock
}

// LaunchError reports a program that could not be started.
type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError reports a process that exited on its own with a non-zero
// status. Processes stopped by Release do not produce an ExitError.
type ExitError struct {
	Argv []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", strings.Join(e.Argv, " "), e.Code)
}

// Process is a started child process. Create it with Start and release
// it with Release.
type Process struct {
	argv   []string
	cmd    *exec.Cmd
	logger *slog.Logger
	clock  clock.Clock
	grace  time.Duration

	// done is closed once the child has been reaped.
	done chan struct{}

	mu      sync.Mutex
	state   State
	stopped bool

	releaseOnce  sync.Once
	releaseError error
}

// Start launches the program described by config.
func Start(config Config) (*Process, error) {
	if len(config.Argv) == 0 {
		return nil, &LaunchError{Err: errors.New("empty argument vector")}
	}
	argv := append([]string(nil), config.Argv...)

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, &LaunchError{Argv: argv, Err: err}
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = append(os.Environ(), config.Env...)
	cmd.Dir = config.Dir
	cmd.Stdin = config.Stdin
	cmd.Stdout = config.Stdout
	cmd.Stderr = config.Stderr
	cmd.ExtraFiles = config.ExtraFiles
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Argv: argv, Err: err}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	grace := config.TerminateGrace
	if grace <= 0 {
		grace = DefaultTerminateGrace
	}

	process := &Process{
		argv:   argv,
		cmd:    cmd,
		logger: logger.With("program", argv[0], "pid", cmd.Process.Pid),
		clock:  clk,
		grace:  grace,
		done:   make(chan struct{}),
		state:  Running,
	}
	process.logger.Debug("process started", "argv", argv)

	go process.reap()
	return process, nil
}

// With starts a process, runs body, and releases the process on every
// exit path. The returned error joins body's error with Release's.
func With(config Config, body func(*Process) error) (err error) {
	process, err := Start(config)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, process.Release())
	}()
	return body(process)
}

// reap collects the child's exit status. exec closes any pipes it
// created for the standard streams before Wait returns.
func (p *Process) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.state = Reaped
	p.mu.Unlock()

	p.logger.Debug("process reaped", "exit_code", p.cmd.ProcessState.ExitCode(), "wait_error", err)
	close(p.done)
}

// PID returns the child's process id.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Argv returns the argument vector the process was started with.
func (p *Process) Argv() []string { return append([]string(nil), p.argv...) }

// State returns the current lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done returns a channel that is closed once the process has been
// reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// ExitCode returns the exit status once the process has been reaped:
// the exit code, or -1 when the process was killed by a signal. Before
// that it returns -1 and false.
func (p *Process) ExitCode() (int, bool) {
	select {
	case <-p.done:
		return p.cmd.ProcessState.ExitCode(), true
	default:
		return -1, false
	}
}

// Wait blocks until the process exits on its own or ctx is cancelled.
// A non-zero exit status of a process that was not stopped through
// Terminate or Release is returned as *ExitError.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
	}

	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()

	code := p.cmd.ProcessState.ExitCode()
	if code != 0 && !stopped {
		return &ExitError{Argv: p.Argv(), Code: code}
	}
	return nil
}

// Terminate sends SIGTERM to the process group if the process has not
// been reaped yet. It does not wait.
func (p *Process) Terminate() error {
	return p.signal(unix.SIGTERM)
}

// Release terminates the process if it is still running and blocks
// until it has been reaped, escalating to SIGKILL after the grace
// period. Only the first call acts; later calls return its result.
func (p *Process) Release() error {
	p.releaseOnce.Do(func() {
		p.releaseError = p.release()
	})
	return p.releaseError
}

func (p *Process) release() error {
	termErr := p.Terminate()

	select {
	case <-p.done:
		return termErr
	case <-p.clock.After(p.grace):
	}

	p.logger.Warn("process ignored SIGTERM, sending SIGKILL", "grace", p.grace)
	killErr := p.signal(unix.SIGKILL)
	<-p.done
	return errors.Join(termErr, killErr)
}

// signal delivers sig to the child's process group. A group that no
// longer exists is not an error: the child is already gone. The
// process only counts as stopped when the child was still running, so
// a child that already failed on its own keeps its ExitError.
func (p *Process) signal(sig unix.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Reaped {
		return nil
	}
	pid := p.cmd.Process.Pid
	finished := childExited(pid)

	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sending %v to %s (pid %d): %w", sig, p.argv[0], pid, err)
	}
	if !finished {
		p.state = Terminated
		p.stopped = true
	}
	return nil
}
