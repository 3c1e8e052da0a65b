// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "github.com/fabrun/fabrun/lib/config"

// ConfigParams is embedded in the params of every command that runs a
// workflow.
type ConfigParams struct {
	ConfigFile string `flag:"config" desc:"configuration file (default: $FABRUN_CONFIG, else built-in defaults)"`
}

// LoadConfig loads the file named by --config, falling back to
// FABRUN_CONFIG and then to the defaults.
func (p ConfigParams) LoadConfig() (*config.Config, error) {
	if p.ConfigFile != "" {
		return config.LoadFile(p.ConfigFile)
	}
	return config.Load()
}
