// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package xdo drives windows on an X display through the xdotool and
// xclip command-line tools.
//
// The central type is Client, which is bound to one display through the
// environment of its Runner. Every operation goes through the Runner,
// so it is structurally impossible to send keystrokes to a display
// other than the one the workflow owns, and tests can replace the X
// tools with a scripted fake.
//
// # Synchronization contract
//
// Synthetic input is fire-and-forget: SendKeys and TypeText report
// whether xdotool ran, not whether the target window processed the
// events. Callers must re-establish focus with WaitForWindow before
// every burst of input. Nothing in this package retries input, because
// a silent retry would hide ordering bugs in the calling workflow.
//
// WaitForWindow is the only blocking operation. It polls with a fixed
// interval and fails with *WindowTimeoutError when the window never
// appears.
//
// # Window matching
//
// Patterns are xdotool --name regular expressions matched against
// window titles. When several visible windows match, the first id
// xdotool prints wins. That order is the X server's window enumeration
// order: stable for a given server state, but not specified by the
// windowing system, so a pattern that matches two windows at once is a
// bug in the pattern.
//
// # Clipboard
//
// Filesystem paths are entered by storing them in the clipboard and
// pasting with a single ctrl+v, instead of typing them character by
// character. A paste is one keystroke and cannot be split by a focus
// change or reinterpreted by a dialog's autocompletion.
// ClipboardRetrieve returns the selection verbatim; NormalizeClipboard
// defines the only normalization callers may apply.
package xdo
