// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package artifact records what a workflow produced. Every output file
// is hashed with keyed BLAKE3 and listed in a manifest.yaml next to the
// outputs, so a CI job can tell a rerun that changed nothing from one
// that regenerated different Gerbers. Gerber sets are packed into a
// single zip archive for fabrication houses.
package artifact
