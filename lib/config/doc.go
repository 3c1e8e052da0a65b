// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for fabrun.
//
// Configuration comes from at most one file, named by either the
// FABRUN_CONFIG environment variable (via [Load]) or the --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search. Without a file, [Default] applies: every value fabrun
// needs has a built-in default, so a config file only lists what it
// changes.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. Environment
// variables never override config values directly.
//
// Key exports:
//
//   - [Config] -- master struct with Display, Timeouts, Poll, Tools, Paths
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other fabrun packages.
package config
