// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package display runs the virtual X framebuffer that every workflow
// drives its application on, and optionally records it to video.
//
// The display number is chosen by the X server itself (-displayfd),
// so concurrent fabrun runs on one host never race for a free :N.
package display

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fabrun/fabrun/lib/clock"
	"github.com/fabrun/fabrun/lib/supervisor"
)

const (
	DefaultWidth        = 800
	DefaultHeight       = 600
	DefaultDepth        = 24
	DefaultBinary       = "Xvfb"
	DefaultStartTimeout = 10 * time.Second
)

// Config describes a virtual display.
type Config struct {
	// Width, Height and Depth are the screen geometry. Zero means the
	// defaults (800x600x24).
	Width  int
	Height int
	Depth  int

	// Binary is the X server program. Empty means "Xvfb".
	Binary string

	// StartTimeout bounds how long the server may take to report its
	// display number.
	StartTimeout time.Duration

	// TerminateGrace is passed to the supervisor.
	TerminateGrace time.Duration

	Logger *slog.Logger
	Clock  clock.Clock
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Depth <= 0 {
		c.Depth = DefaultDepth
	}
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.StartTimeout <= 0 {
		c.StartTimeout = DefaultStartTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	return c
}

// Display is a running virtual framebuffer.
type Display struct {
	number  int
	width   int
	height  int
	depth   int
	process *supervisor.Process
	logger  *slog.Logger
}

// Start launches the X server and waits until it reports the display
// number it is serving. A server that exits or stays silent past
// StartTimeout is released and reported as an error.
func Start(ctx context.Context, config Config) (*Display, error) {
	config = config.withDefaults()

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating display number pipe: %w", err)
	}
	defer reader.Close()

	geometry := fmt.Sprintf("%dx%dx%d", config.Width, config.Height, config.Depth)
	process, err := supervisor.Start(supervisor.Config{
		Argv:           []string{config.Binary, "-displayfd", "3", "-screen", "0", geometry, "-nolisten", "tcp"},
		ExtraFiles:     []*os.File{writer},
		TerminateGrace: config.TerminateGrace,
		Logger:         config.Logger,
		Clock:          config.Clock,
	})
	writer.Close()
	if err != nil {
		return nil, err
	}

	type result struct {
		line string
		err  error
	}
	lines := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(reader).ReadString('\n')
		lines <- result{line, err}
	}()

	fail := func(err error) (*Display, error) {
		return nil, errors.Join(err, process.Release())
	}

	var number int
	select {
	case read := <-lines:
		if read.err != nil && read.line == "" {
			return fail(fmt.Errorf("%s exited before reporting a display number: %w", config.Binary, read.err))
		}
		number, err = parseDisplayNumber(read.line)
		if err != nil {
			return fail(err)
		}
	case <-config.Clock.After(config.StartTimeout):
		return fail(fmt.Errorf("%s did not report a display number within %s", config.Binary, config.StartTimeout))
	case <-ctx.Done():
		return fail(ctx.Err())
	}

	display := &Display{
		number:  number,
		width:   config.Width,
		height:  config.Height,
		depth:   config.Depth,
		process: process,
		logger:  config.Logger.With("display", ":"+strconv.Itoa(number)),
	}
	display.logger.Info("virtual display started", "geometry", geometry, "pid", process.PID())
	return display, nil
}

// With starts a display, runs body, and closes the display on every
// exit path.
func With(ctx context.Context, config Config, body func(*Display) error) (err error) {
	display, err := Start(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, display.Close())
	}()
	return body(display)
}

// parseDisplayNumber parses the line -displayfd writes.
func parseDisplayNumber(line string) (int, error) {
	text := strings.TrimSpace(line)
	number, err := strconv.Atoi(text)
	if err != nil || number < 0 {
		return 0, fmt.Errorf("invalid display number %q", text)
	}
	return number, nil
}

// Name returns the X display name, ":N".
func (d *Display) Name() string { return ":" + strconv.Itoa(d.number) }

// Number returns N of ":N".
func (d *Display) Number() int { return d.number }

// Geometry returns width, height, and depth.
func (d *Display) Geometry() (width, height, depth int) { return d.width, d.height, d.depth }

// Env returns the environment entries that point X clients at this
// display.
func (d *Display) Env() []string { return []string{"DISPLAY=" + d.Name()} }

// PID returns the X server's process id.
func (d *Display) PID() int { return d.process.PID() }

// Close stops the X server. It is idempotent.
func (d *Display) Close() error {
	if err := d.process.Release(); err != nil {
		return fmt.Errorf("stopping display %s: %w", d.Name(), err)
	}
	d.logger.Info("virtual display stopped")
	return nil
}
