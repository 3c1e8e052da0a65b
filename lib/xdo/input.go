// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package xdo

import (
	"context"
	"fmt"
	"strings"
)

// SendKeys synthesizes the key chords in order to the focused window.
// Chords use xdotool syntax: "Return", "ctrl+v", "alt+f", "KP_Enter".
// An empty chord list is a no-op.
func (c *Client) SendKeys(ctx context.Context, chords ...string) error {
	if len(chords) == 0 {
		return nil
	}
	c.logger.Debug("sending keys", "keys", strings.Join(chords, " "))
	argv := append([]string{c.xdotool, "key"}, chords...)
	if _, err := c.runner.Run(ctx, Invocation{Argv: argv}); err != nil {
		return fmt.Errorf("sending keys %v: %w", chords, err)
	}
	return nil
}

// TypeText synthesizes the characters of text to the focused window.
// Text starting with "-" is typed literally.
func (c *Client) TypeText(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	c.logger.Debug("typing text", "length", len(text))
	if _, err := c.runner.Run(ctx, Invocation{Argv: []string{c.xdotool, "type", "--", text}}); err != nil {
		return fmt.Errorf("typing text: %w", err)
	}
	return nil
}

// Repeat returns count copies of chord, for sequences such as tabbing
// through a dialog's controls.
func Repeat(chord string, count int) []string {
	if count <= 0 {
		return nil
	}
	chords := make([]string, count)
	for i := range chords {
		chords[i] = chord
	}
	return chords
}
