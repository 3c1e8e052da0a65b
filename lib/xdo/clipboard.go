// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package xdo

import (
	"context"
	"fmt"
	"strings"
)

// ClipboardError reports a failed clipboard store or retrieve.
type ClipboardError struct {
	// Op is "store" or "retrieve".
	Op  string
	Err error
}

func (e *ClipboardError) Error() string {
	return fmt.Sprintf("clipboard %s: %v", e.Op, e.Err)
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// ClipboardStore makes text the display's CLIPBOARD selection.
func (c *Client) ClipboardStore(ctx context.Context, text string) error {
	c.logger.Debug("storing clipboard", "text", text)
	_, err := c.runner.Run(ctx, Invocation{
		Argv:     []string{c.xclip, "-selection", "clipboard"},
		Stdin:    text,
		Detached: true,
	})
	if err != nil {
		c.logger.Error("clipboard store failed", "error", err)
		return &ClipboardError{Op: "store", Err: err}
	}
	return nil
}

// ClipboardRetrieve returns the display's CLIPBOARD selection exactly
// as xclip prints it.
func (c *Client) ClipboardRetrieve(ctx context.Context) (string, error) {
	output, err := c.runner.Run(ctx, Invocation{
		Argv: []string{c.xclip, "-o", "-selection", "clipboard"},
	})
	if err != nil {
		c.logger.Error("clipboard retrieve failed", "error", err)
		return "", &ClipboardError{Op: "retrieve", Err: err}
	}
	return string(output), nil
}

// NormalizeClipboard strips trailing carriage returns and line feeds,
// which dialogs append when their text is copied. Nothing else is
// changed: leading and interior whitespace is part of the value.
func NormalizeClipboard(text string) string {
	return strings.TrimRight(text, "\r\n")
}
