// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for fabrun packages.
//
// [RequireReceive] encapsulates the timeout safety valve pattern (select
// with a time.After fallback) so individual tests never hang when the
// code under test fails to deliver. It is the only place in the test
// suite that uses a real wall-clock timeout.
//
// [RequireTool] skips a test when an external program (Xvfb, xdotool,
// xclip) is not installed, so the integration tests degrade to skips on
// machines without an X toolchain instead of failing.
//
// [WriteScript] writes a small executable shell script into a test's
// temporary directory. Tests use it as a stand-in for the GUI tools the
// workflows drive.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no fabrun-internal dependencies.
package testutil
