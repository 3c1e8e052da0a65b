// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the fabrun
// binary.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/fabrun/fabrun/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// They default to "unknown" / "0.1.0-dev" when not injected, which
// occurs during development builds and test runs. [Info] is printed by
// "fabrun version" and recorded in artifact manifests; [Full] adds the
// Go version and platform.
package version
