// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fabrun/fabrun/lib/clock"
	"github.com/fabrun/fabrun/lib/supervisor"
)

const (
	DefaultRecorderBinary = "recordmydesktop"

	// DefaultRecorderGrace allows the recorder to flush its encoder
	// after SIGTERM.
	DefaultRecorderGrace = 30 * time.Second
)

// RecorderConfig describes a screencast of a display.
type RecorderConfig struct {
	// Binary is the recorder program. Empty means "recordmydesktop".
	Binary string

	// Output is the video file to write. Required.
	Output string

	// TerminateGrace is how long the recorder may take to finish
	// encoding. Zero means DefaultRecorderGrace.
	TerminateGrace time.Duration

	Logger *slog.Logger
	Clock  clock.Clock
}

// WithRecording records display to config.Output while body runs. The
// recorder is stopped when body returns, before the caller releases the
// display, whether or not body failed.
func WithRecording(ctx context.Context, display *Display, config RecorderConfig, body func() error) (err error) {
	if config.Output == "" {
		return fmt.Errorf("recording display %s: no output file", display.Name())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	binary := config.Binary
	if binary == "" {
		binary = DefaultRecorderBinary
	}
	grace := config.TerminateGrace
	if grace <= 0 {
		grace = DefaultRecorderGrace
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	recorder, err := supervisor.Start(supervisor.Config{
		Argv:           []string{binary, "--no-sound", "--no-frame", "--on-the-fly-encoding", "-o", config.Output},
		Env:            display.Env(),
		TerminateGrace: grace,
		Logger:         logger,
		Clock:          config.Clock,
	})
	if err != nil {
		return err
	}
	logger.Info("recording display", "display", display.Name(), "output", config.Output)
	defer func() {
		if releaseErr := recorder.Release(); releaseErr != nil {
			err = errors.Join(err, fmt.Errorf("stopping recorder: %w", releaseErr))
			return
		}
		logger.Info("recording stopped", "output", config.Output)
	}()
	return body()
}
