// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package filewatch decides when a GUI application has finished writing
// an output file.
//
// The applications fabrun drives give no completion signal: a dialog
// closes, and some time later the file on disk is complete. The only
// reliable evidence is that the file exists and the producing process
// no longer holds it open. Watcher polls both conditions through the
// process's open-file-handle set, read with gopsutil.
package filewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/fabrun/fabrun/lib/clock"
	"github.com/fabrun/fabrun/lib/poll"
)

const (
	DefaultInterval = 10 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// OpenFilesFunc returns the paths a process currently holds open. A
// process that no longer exists holds nothing open and must yield an
// empty list, not an error.
type OpenFilesFunc func(ctx context.Context, pid int) ([]string, error)

// Expectation names an output file and the process producing it.
type Expectation struct {
	// PID is the producer's process id.
	PID int

	// Path is the file the producer will write.
	Path string

	// ModifiedAfter, when non-zero, additionally requires the file's
	// modification time to be after this instant. Used when the file
	// already existed before the producer was asked to rewrite it.
	ModifiedAfter time.Time
}

// FileWaitTimeoutError reports a file that was not written and closed
// in time.
type FileWaitTimeoutError struct {
	Path    string
	PID     int
	Timeout time.Duration
	Elapsed time.Duration

	// Reason is the last state observed: "missing", "open",
	// "not modified", or "open files unavailable".
	Reason string

	// LastErr is the last error reading the open-file set, if any.
	LastErr error
}

func (e *FileWaitTimeoutError) Error() string {
	message := fmt.Sprintf("timed out after %s waiting for process %d to finish writing %s (%s)",
		e.Elapsed, e.PID, e.Path, e.Reason)
	if e.LastErr != nil {
		message += ": " + e.LastErr.Error()
	}
	return message
}

func (e *FileWaitTimeoutError) Unwrap() error { return e.LastErr }

// Watcher waits for output files. The zero value is usable: it polls
// every DefaultInterval for up to DefaultTimeout with the real clock
// and the host's process table.
type Watcher struct {
	Clock     clock.Clock
	Interval  time.Duration
	Timeout   time.Duration
	OpenFiles OpenFilesFunc
	Logger    *slog.Logger
}

// WaitForFileClosed blocks until the expected file exists, satisfies
// ModifiedAfter, and is absent from the producer's open-file set.
func (w *Watcher) WaitForFileClosed(ctx context.Context, expectation Expectation) error {
	clk := w.Clock
	if clk == nil {
		clk = clock.Real()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	openFiles := w.OpenFiles
	if openFiles == nil {
		openFiles = ProcessOpenFiles
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if expectation.Path == "" {
		return fmt.Errorf("waiting for output file: empty path")
	}

	logger.Info("waiting for output file", "path", expectation.Path, "pid", expectation.PID, "timeout", timeout)

	reason := "missing"
	var lastErr error
	err := poll.Until(ctx, clk, poll.Policy{Interval: interval, Timeout: timeout}, func(ctx context.Context) (bool, error) {
		info, err := os.Stat(expectation.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				reason = "missing"
				return false, nil
			}
			return false, fmt.Errorf("checking %s: %w", expectation.Path, err)
		}
		if !expectation.ModifiedAfter.IsZero() && !info.ModTime().After(expectation.ModifiedAfter) {
			reason = "not modified"
			return false, nil
		}

		open, err := openFiles(ctx, expectation.PID)
		if err != nil {
			reason = "open files unavailable"
			lastErr = err
			logger.Debug("reading open files failed", "pid", expectation.PID, "error", err)
			return false, nil
		}
		if holds(open, expectation.Path) {
			reason = "open"
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		var timeoutErr *poll.TimeoutError
		if errors.As(err, &timeoutErr) {
			logger.Error("output file not completed", "path", expectation.Path, "pid", expectation.PID,
				"reason", reason, "elapsed", timeoutErr.Elapsed)
			return &FileWaitTimeoutError{
				Path:    expectation.Path,
				PID:     expectation.PID,
				Timeout: timeout,
				Elapsed: timeoutErr.Elapsed,
				Reason:  reason,
				LastErr: lastErr,
			}
		}
		return err
	}

	logger.Info("output file completed", "path", expectation.Path)
	return nil
}

// holds reports whether path is in the open-file set. Both sides are
// compared in canonical form, because the kernel reports resolved
// absolute paths.
func holds(open []string, path string) bool {
	want := canonical(path)
	for _, candidate := range open {
		if canonical(candidate) == want {
			return true
		}
	}
	return false
}

func canonical(path string) string {
	if absolute, err := filepath.Abs(path); err == nil {
		path = absolute
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// ProcessOpenFiles reads a process's open files from the host process
// table.
func ProcessOpenFiles(ctx context.Context, pid int) ([]string, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, nil
		}
		return nil, fmt.Errorf("inspecting process %d: %w", pid, err)
	}
	stats, err := proc.OpenFilesWithContext(ctx)
	if err != nil {
		// The process may have exited between the two calls.
		if running, runErr := process.PidExistsWithContext(ctx, int32(pid)); runErr == nil && !running {
			return nil, nil
		}
		return nil, fmt.Errorf("reading open files of process %d: %w", pid, err)
	}
	paths := make([]string, 0, len(stats))
	for _, stat := range stats {
		paths = append(paths, stat.Path)
	}
	return paths, nil
}
