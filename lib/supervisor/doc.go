// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor starts external programs (Xvfb, the screen
// recorder, eeschema, pcbnew, kicad-cli) and guarantees they are
// terminated and reaped.
//
// Every child runs in its own process group, so terminating a GUI
// application also reaches any helpers it spawned. A background
// goroutine calls Wait as soon as the child starts; the child is
// therefore reaped the moment it exits and never lingers as a zombie,
// whether or not anyone calls Release.
//
// Ownership is scoped: whoever calls [Start] must call
// [Process.Release] exactly once on every exit path, typically with
// defer, or use [With], which does that itself. Release sends SIGTERM
// to the group if the child is still running, waits for it to be
// reaped, and escalates to SIGKILL after the configured grace period.
// Release is idempotent: later calls return the first call's result
// without signalling again.
//
// A program that cannot be found or started yields a *LaunchError.
// Launch failures are never retried.
package supervisor
