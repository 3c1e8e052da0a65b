// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fabrun/fabrun/lib/clock"
	"github.com/fabrun/fabrun/lib/config"
	"github.com/fabrun/fabrun/lib/testutil"
	"github.com/fabrun/fabrun/lib/xdo"
)

// fakeDesktop stands in for a display's window, input, and clipboard
// tools. It records every action as one line, keeps the clipboard in
// memory, and lets a test react to keystrokes by writing output files.
type fakeDesktop struct {
	mu        sync.Mutex
	actions   []string
	clipboard string

	// optional reports whether an optional window appears.
	optional bool
	// missing lists window patterns that never appear.
	missing []string
	// onKeys runs after every SendKeys call.
	onKeys func(d *fakeDesktop, chords []string) error
}

func (d *fakeDesktop) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, fmt.Sprintf(format, args...))
}

func (d *fakeDesktop) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.actions)
}

func (d *fakeDesktop) WaitForWindow(_ context.Context, label, pattern string, options xdo.WaitOptions) (xdo.Window, error) {
	if options.NoFocus {
		d.record("window %s nofocus", pattern)
	} else {
		d.record("window %s", pattern)
	}
	if slices.Contains(d.missing, pattern) {
		return xdo.Window{}, &xdo.WindowTimeoutError{Label: label, Pattern: pattern, Timeout: options.Timeout}
	}
	return xdo.Window{ID: "4194311", Label: label, Pattern: pattern}, nil
}

func (d *fakeDesktop) WaitForOptionalWindow(_ context.Context, label, pattern string, _ xdo.WaitOptions) (xdo.Window, bool, error) {
	d.record("optional %s", pattern)
	if !d.optional {
		return xdo.Window{}, false, nil
	}
	return xdo.Window{ID: "4194320", Label: label, Pattern: pattern}, true, nil
}

func (d *fakeDesktop) ResizeWindow(_ context.Context, window xdo.Window, width, height int) error {
	d.record("resize %s %dx%d", window.ID, width, height)
	return nil
}

func (d *fakeDesktop) SendKeys(_ context.Context, chords ...string) error {
	if len(chords) == 0 {
		return nil
	}
	d.record("keys %s", strings.Join(chords, " "))
	if d.onKeys != nil {
		return d.onKeys(d, chords)
	}
	return nil
}

func (d *fakeDesktop) ClipboardStore(_ context.Context, text string) error {
	d.record("clipboard %s", text)
	d.setClipboard(text)
	return nil
}

func (d *fakeDesktop) ClipboardRetrieve(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clipboard, nil
}

func (d *fakeDesktop) setClipboard(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clipboard = text
}

// testHarness is a Runner whose sessions use a fakeDesktop and whose
// editors are shell scripts that idle until released.
type testHarness struct {
	runner   *Runner
	desktop  *fakeDesktop
	clock    *clock.SteppedClock
	config   *config.Config
	sessions []sessionOptions
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	editor := testutil.WriteScript(t, "editor", "exec sleep 60")
	cfg := config.Default()
	cfg.Tools.Eeschema = editor
	cfg.Tools.Pcbnew = editor
	cfg.Paths.KicadConfigDir = t.TempDir()
	cfg.Timeouts.File = 2 * time.Second
	cfg.Timeouts.TerminateGrace = 2 * time.Second

	h := &testHarness{
		desktop: &fakeDesktop{},
		clock:   clock.Stepped(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		config:  cfg,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.runner = New(cfg, logger)
	h.runner.clock = h.clock
	h.runner.openFiles = func(context.Context, int) ([]string, error) { return nil, nil }
	h.runner.environment = func(ctx context.Context, options sessionOptions, body func(*session) error) error {
		h.sessions = append(h.sessions, options)
		return body(&session{
			desktop: h.desktop,
			files:   h.runner.fileWatcher(logger),
			logger:  logger,
		})
	}
	return h
}

// writeOn returns an onKeys hook that writes content to path when a
// SendKeys call equals chords.
func writeOn(t *testing.T, path, content string, chords ...string) func(*fakeDesktop, []string) error {
	t.Helper()
	return func(_ *fakeDesktop, sent []string) error {
		if slices.Equal(sent, chords) {
			return os.WriteFile(path, []byte(content), 0o644)
		}
		return nil
	}
}

// writeFile creates a file with content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
