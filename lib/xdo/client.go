// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package xdo

import (
	"log/slog"
	"time"

	"github.com/fabrun/fabrun/lib/clock"
)

const (
	// DefaultPollInterval is the delay between window searches.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultWindowTimeout bounds a window wait when WaitOptions does
	// not set one.
	DefaultWindowTimeout = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	// Runner executes xdotool and xclip. Required.
	Runner Runner

	// Clock drives window polling. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives progress messages. Nil means slog.Default().
	Logger *slog.Logger

	// PollInterval is the delay between window searches. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// SyncTimeout bounds xdotool calls that wait for the X server
	// outside a window wait, such as "windowsize --sync". Zero means
	// DefaultWindowTimeout.
	SyncTimeout time.Duration

	// Xdotool and Xclip override the program names. Empty means
	// "xdotool" and "xclip" resolved against PATH.
	Xdotool string
	Xclip   string
}

// Client sends window, input, and clipboard operations to one display.
type Client struct {
	runner       Runner
	clock        clock.Clock
	logger       *slog.Logger
	pollInterval time.Duration
	syncTimeout  time.Duration
	xdotool      string
	xclip        string
}

// New returns a Client for the display its Runner targets.
func New(config Config) *Client {
	client := &Client{
		runner:       config.Runner,
		clock:        config.Clock,
		logger:       config.Logger,
		pollInterval: config.PollInterval,
		syncTimeout:  config.SyncTimeout,
		xdotool:      config.Xdotool,
		xclip:        config.Xclip,
	}
	if client.clock == nil {
		client.clock = clock.Real()
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	if client.pollInterval <= 0 {
		client.pollInterval = DefaultPollInterval
	}
	if client.syncTimeout <= 0 {
		client.syncTimeout = DefaultWindowTimeout
	}
	if client.xdotool == "" {
		client.xdotool = "xdotool"
	}
	if client.xclip == "" {
		client.xclip = "xclip"
	}
	return client
}
