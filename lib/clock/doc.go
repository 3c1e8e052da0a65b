// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time abstraction used by every polling loop
// in fabrun.
//
// Waiting for a window to appear, for Xvfb to report its display number,
// or for a plot file to be closed all reduce to "check, sleep a fixed
// interval, check again until a deadline". Those loops take a Clock
// instead of calling time.Now and time.Sleep directly, so tests can drive
// them with simulated time instead of wall-clock sleeps.
//
// Three implementations exist:
//
//   - Real() is backed by the time package and is what main wires in.
//   - Fake() stands still until Advance is called. Use it when the code
//     under test runs in its own goroutine and the test steps time
//     forward explicitly (WaitForTimers, then Advance).
//   - Stepped() advances itself by exactly the requested duration on
//     every Sleep and returns immediately. Use it for synchronous tests
//     of polling loops: a ten-second timeout completes in microseconds
//     and the elapsed simulated time is exact.
package clock
