// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow scripts the schematic and board editors through
// their GUIs to produce manufacturing artifacts.
//
// Every GUI workflow has the same shape. A Runner acquires a virtual
// display (and, when asked, a screen recording of it), launches the
// editor on that display under the process supervisor, and then
// alternates two kinds of step: synchronize (wait for a window by
// title, wait for a file to be written and closed) and act (send a key
// sequence, paste a path through the clipboard). Everything acquired is
// released in reverse order on every exit path.
//
// The key sequences encode the dialog layouts of KiCad 5 at the
// configured screen size. They are defined in keys.go next to the
// window title patterns they are sent to.
//
// Plot is the exception: it runs the editor's command-line exporter
// under the supervisor and needs no display.
package workflow
