// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the fabrun binary: a
// tree of [Command] values dispatched by name, with flags bound from
// tagged params structs. Check commands report their defect count
// through [ExitError].
package cli
