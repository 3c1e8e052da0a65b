// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the entrypoint helper for the fabrun
// binary: fatal error reporting to stderr for errors that occur before
// the structured logger exists, or that escape run() in main.
package process
