// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package xdo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fabrun/fabrun/lib/poll"
	"github.com/fabrun/fabrun/lib/supervisor"
)

// Window is a top-level window matched by WaitForWindow.
type Window struct {
	// ID is the X window id as printed by xdotool (decimal).
	ID string

	// Label is the caller's human-readable name for the window, used
	// in log messages and errors.
	Label string

	// Pattern is the title regular expression the window matched.
	Pattern string

	// MatchedAt is when the search first returned the window.
	MatchedAt time.Time
}

// WaitOptions tunes one window wait.
type WaitOptions struct {
	// Timeout bounds the wait. Zero means DefaultWindowTimeout.
	Timeout time.Duration

	// NoFocus skips giving the window keyboard focus once found. The
	// default is to focus, because every caller that is about to send
	// keystrokes needs the window focused.
	NoFocus bool
}

// WindowTimeoutError reports a window that never appeared.
type WindowTimeoutError struct {
	Label   string
	Pattern string
	Timeout time.Duration
	Elapsed time.Duration
	Err     error
}

func (e *WindowTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s window (title pattern %q)",
		e.Elapsed, e.Label, e.Pattern)
}

func (e *WindowTimeoutError) Unwrap() error { return e.Err }

// WaitForWindow polls until a visible window whose title matches
// pattern exists, optionally focuses it, and returns it. A search that
// finds nothing, or a focus that fails because the window is still
// being mapped, is retried at the client's poll interval. A missing
// xdotool is returned immediately as *supervisor.LaunchError.
func (c *Client) WaitForWindow(ctx context.Context, label, pattern string, options WaitOptions) (Window, error) {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultWindowTimeout
	}
	focus := !options.NoFocus

	c.logger.Info("waiting for window", "window", label, "pattern", pattern, "timeout", timeout)

	var found Window
	deadline := c.clock.Now().Add(timeout)
	policy := poll.Policy{Interval: c.pollInterval, Timeout: timeout}
	err := poll.Until(ctx, c.clock, policy, func(ctx context.Context) (bool, error) {
		// xdotool's --sync flags block until the server reports the
		// change, so every attempt carries the wait's deadline.
		attempt, cancel := context.WithTimeout(ctx, max(deadline.Sub(c.clock.Now()), c.pollInterval))
		defer cancel()
		expired := func() bool { return attempt.Err() != nil && ctx.Err() == nil }

		id, err := c.search(attempt, pattern)
		if expired() {
			c.logger.Debug("window search outlived the wait deadline", "window", label)
			return false, nil
		}
		if err != nil || id == "" {
			return false, err
		}
		if focus {
			if err := c.focus(attempt, id); err != nil {
				var commandErr *CommandError
				if errors.As(err, &commandErr) || expired() {
					c.logger.Debug("window found but not focusable yet", "window", label, "id", id, "error", err)
					return false, nil
				}
				return false, err
			}
		}
		found = Window{ID: id, Label: label, Pattern: pattern, MatchedAt: c.clock.Now()}
		return true, nil
	})
	if err != nil {
		var timeoutErr *poll.TimeoutError
		if errors.As(err, &timeoutErr) {
			c.logger.Error("window did not appear", "window", label, "pattern", pattern, "elapsed", timeoutErr.Elapsed)
			return Window{}, &WindowTimeoutError{
				Label:   label,
				Pattern: pattern,
				Timeout: timeout,
				Elapsed: timeoutErr.Elapsed,
				Err:     err,
			}
		}
		return Window{}, err
	}

	c.logger.Info("window found", "window", label, "id", found.ID, "focused", focus)
	return found, nil
}

// WaitForOptionalWindow waits for a window that may legitimately never
// appear, such as a first-run warning dialog. It reports whether the
// window was found; a timeout is not an error.
func (c *Client) WaitForOptionalWindow(ctx context.Context, label, pattern string, options WaitOptions) (Window, bool, error) {
	window, err := c.WaitForWindow(ctx, label, pattern, options)
	if err != nil {
		var timeoutErr *WindowTimeoutError
		if errors.As(err, &timeoutErr) {
			c.logger.Info("optional window did not appear", "window", label)
			return Window{}, false, nil
		}
		return Window{}, false, err
	}
	return window, true, nil
}

// ResizeWindow sets the window's size in pixels and waits, at most the
// client's sync timeout, for the X server to apply it.
func (c *Client) ResizeWindow(ctx context.Context, window Window, width, height int) error {
	ctx, cancel := context.WithTimeout(ctx, c.syncTimeout)
	defer cancel()
	_, err := c.runner.Run(ctx, Invocation{Argv: []string{
		c.xdotool, "windowsize", "--sync", window.ID, strconv.Itoa(width), strconv.Itoa(height),
	}})
	if err != nil {
		return fmt.Errorf("resizing %s window to %dx%d: %w", window.Label, width, height, err)
	}
	return nil
}

// search returns the first visible window id matching pattern, or ""
// when there is none. xdotool exits non-zero when nothing matches, so
// a CommandError is "not found" rather than a failure.
func (c *Client) search(ctx context.Context, pattern string) (string, error) {
	output, err := c.runner.Run(ctx, Invocation{Argv: []string{
		c.xdotool, "search", "--onlyvisible", "--name", pattern,
	}})
	if err != nil {
		var launchErr *supervisor.LaunchError
		if errors.As(err, &launchErr) || ctx.Err() != nil {
			return "", err
		}
		return "", nil
	}
	return firstWindowID(string(output)), nil
}

func (c *Client) focus(ctx context.Context, id string) error {
	_, err := c.runner.Run(ctx, Invocation{Argv: []string{c.xdotool, "windowfocus", "--sync", id}})
	return err
}

// firstWindowID returns the first non-empty line of xdotool search
// output.
func firstWindowID(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			return id
		}
	}
	return ""
}
