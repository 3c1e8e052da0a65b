// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/fabrun/fabrun/lib/clock"
	"github.com/fabrun/fabrun/lib/config"
	"github.com/fabrun/fabrun/lib/display"
	"github.com/fabrun/fabrun/lib/filewatch"
	"github.com/fabrun/fabrun/lib/supervisor"
	"github.com/fabrun/fabrun/lib/xdo"
)

// Desktop is the window, input, and clipboard surface of one display.
// *xdo.Client implements it.
type Desktop interface {
	WaitForWindow(ctx context.Context, label, pattern string, options xdo.WaitOptions) (xdo.Window, error)
	WaitForOptionalWindow(ctx context.Context, label, pattern string, options xdo.WaitOptions) (xdo.Window, bool, error)
	ResizeWindow(ctx context.Context, window xdo.Window, width, height int) error
	SendKeys(ctx context.Context, chords ...string) error
	ClipboardStore(ctx context.Context, text string) error
	ClipboardRetrieve(ctx context.Context) (string, error)
}

var _ Desktop = (*xdo.Client)(nil)

// PreconditionError reports a request that cannot run as given. It is
// returned before anything is launched.
type PreconditionError struct {
	Path   string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// session is one acquired display with the tools bound to it.
type session struct {
	env     []string
	desktop Desktop
	files   *filewatch.Watcher
	logger  *slog.Logger
}

// sessionOptions describes the display a workflow needs.
type sessionOptions struct {
	name  string
	video string
}

// environmentFunc acquires a session, runs body, and releases the
// session on every path.
type environmentFunc func(ctx context.Context, options sessionOptions, body func(*session) error) error

// Runner runs workflows with one configuration.
type Runner struct {
	config *config.Config
	logger *slog.Logger
	clock  clock.Clock

	environment environmentFunc
	openFiles   filewatch.OpenFilesFunc
}

// New returns a Runner that acquires a fresh virtual display for every
// GUI workflow.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	runner := &Runner{config: cfg, logger: logger, clock: clock.Real()}
	runner.environment = runner.virtualDisplay
	return runner
}

// virtualDisplay is the production environment: Xvfb, optionally
// recorded, with xdotool and xclip bound to it.
func (r *Runner) virtualDisplay(ctx context.Context, options sessionOptions, body func(*session) error) error {
	logger := r.logger.With("workflow", options.name)
	displayConfig := display.Config{
		Width:          r.config.Display.Width,
		Height:         r.config.Display.Height,
		Depth:          r.config.Display.Depth,
		Binary:         r.config.Tools.Xvfb,
		StartTimeout:   r.config.Timeouts.DisplayStart,
		TerminateGrace: r.config.Timeouts.TerminateGrace,
		Logger:         logger,
	}
	return display.With(ctx, displayConfig, func(screen *display.Display) error {
		s := &session{
			env: screen.Env(),
			desktop: xdo.New(xdo.Config{
				Runner:       xdo.ExecRunner{Env: screen.Env()},
				Clock:        r.clock,
				Logger:       logger,
				PollInterval: r.config.Poll.WindowInterval,
				SyncTimeout:  r.config.Timeouts.Window,
				Xdotool:      r.config.Tools.Xdotool,
				Xclip:        r.config.Tools.Xclip,
			}),
			files:  r.fileWatcher(logger),
			logger: logger,
		}
		if options.video == "" {
			return body(s)
		}
		recorder := display.RecorderConfig{
			Binary:         r.config.Tools.Recorder,
			Output:         options.video,
			TerminateGrace: r.config.Timeouts.RecorderGrace,
			Logger:         logger,
		}
		return display.WithRecording(ctx, screen, recorder, func() error { return body(s) })
	})
}

func (r *Runner) fileWatcher(logger *slog.Logger) *filewatch.Watcher {
	return &filewatch.Watcher{
		Clock:     r.clock,
		Interval:  r.config.Poll.FileInterval,
		Timeout:   r.config.Timeouts.File,
		OpenFiles: r.openFiles,
		Logger:    logger,
	}
}

// withApplication launches argv on the session's display and releases
// it when body returns.
func (r *Runner) withApplication(s *session, argv []string, extraEnv []string, body func(*supervisor.Process) error) error {
	return supervisor.With(supervisor.Config{
		Argv:           argv,
		Env:            append(slices.Clone(s.env), extraEnv...),
		TerminateGrace: r.config.Timeouts.TerminateGrace,
		Logger:         s.logger,
	}, body)
}

// settle pauses for Timeouts.Settle while the application finishes
// work it gives no signal for.
func (r *Runner) settle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(r.config.Timeouts.Settle):
		return nil
	}
}

// waitFor waits for a required window and focuses it.
func (r *Runner) waitFor(ctx context.Context, s *session, label, pattern string) (xdo.Window, error) {
	return s.desktop.WaitForWindow(ctx, label, pattern, xdo.WaitOptions{Timeout: r.config.Timeouts.Window})
}

// storeClipboard stores text for a later paste. A failed store is
// logged and otherwise ignored: the paste then enters stale text, and
// the dialog's own validation or the following file wait reports it.
func (r *Runner) storeClipboard(ctx context.Context, s *session, text string) {
	if err := s.desktop.ClipboardStore(ctx, text); err != nil {
		s.logger.Warn("continuing after clipboard failure", "error", err)
	}
}

// dismissLibraryWarning closes the "Not Found" dialog the schematic
// editor shows when symbol libraries are missing. The symbols are in
// the project's cache library, so the warning is safe to ignore.
func (r *Runner) dismissLibraryWarning(ctx context.Context, s *session) error {
	_, found, err := s.desktop.WaitForOptionalWindow(ctx, libraryWarningLabel, libraryWarningTitle,
		xdo.WaitOptions{Timeout: r.config.Timeouts.OptionalWindow})
	if err != nil || !found {
		return err
	}
	s.logger.Info("dismissing library warning")
	return s.desktop.SendKeys(ctx, "KP_Enter")
}

// requireFile returns the absolute path of an existing regular file.
func requireFile(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", &PreconditionError{Path: path, Reason: err.Error()}
	}
	info, err := os.Stat(absolute)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &PreconditionError{Path: path, Reason: "does not exist"}
		}
		return "", &PreconditionError{Path: path, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return "", &PreconditionError{Path: path, Reason: "is not a regular file"}
	}
	return absolute, nil
}

// requireAbsent returns the absolute path of a file that must not exist
// yet, creating its parent directory.
func requireAbsent(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", &PreconditionError{Path: path, Reason: err.Error()}
	}
	if _, err := os.Lstat(absolute); err == nil {
		return "", &PreconditionError{Path: path, Reason: "already exists"}
	}
	if err := os.MkdirAll(filepath.Dir(absolute), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return absolute, nil
}

// prepareDirectory returns the absolute path of an output directory,
// creating it.
func prepareDirectory(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", &PreconditionError{Path: path, Reason: err.Error()}
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return absolute, nil
}

// removeStale deletes a previous run's output so that the file wait
// cannot be satisfied by it.
func removeStale(logger *slog.Logger, path string) error {
	err := os.Remove(path)
	if err == nil {
		logger.Info("removed previous output", "path", path)
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("removing previous output: %w", err)
}

// videoPath returns where a run's screencast goes, or "" when the run
// is not recorded.
func videoPath(record bool, directory, name string) string {
	if !record {
		return ""
	}
	return filepath.Join(directory, name+"_screencast.ogv")
}

func baseName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
