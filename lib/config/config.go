// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is not given.
const EnvironmentVariable = "FABRUN_CONFIG"

// Config is the master configuration for fabrun.
type Config struct {
	// Display configures the virtual framebuffer.
	Display DisplayConfig `yaml:"display"`

	// Timeouts bound every wait a workflow performs.
	Timeouts TimeoutsConfig `yaml:"timeouts"`

	// Poll sets the intervals of the polling loops.
	Poll PollConfig `yaml:"poll"`

	// Tools names the external programs fabrun runs.
	Tools ToolsConfig `yaml:"tools"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`
}

// DisplayConfig is the virtual screen geometry. The automation's key
// sequences assume dialogs laid out at this size.
type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`
}

// TimeoutsConfig bounds waits. Values are Go duration strings ("10s").
type TimeoutsConfig struct {
	// Window bounds waiting for a window that must appear.
	// Default: 10s
	Window time.Duration `yaml:"window"`

	// OptionalWindow bounds waiting for a dialog that may never
	// appear, such as the missing-library warning.
	// Default: 3s
	OptionalWindow time.Duration `yaml:"optional_window"`

	// File bounds waiting for an output file to be written and closed.
	// Default: 5s
	File time.Duration `yaml:"file"`

	// DisplayStart bounds waiting for the X server to come up.
	// Default: 10s
	DisplayStart time.Duration `yaml:"display_start"`

	// TerminateGrace is the SIGTERM-to-SIGKILL delay for applications.
	// Default: 5s
	TerminateGrace time.Duration `yaml:"terminate_grace"`

	// RecorderGrace is how long the screen recorder may take to finish
	// encoding after SIGTERM.
	// Default: 30s
	RecorderGrace time.Duration `yaml:"recorder_grace"`

	// Settle is the pause after an import for the editor to finish
	// rebuilding the board before it is saved.
	// Default: 2s
	Settle time.Duration `yaml:"settle"`

	// Plot bounds one headless plot command.
	// Default: 2m
	Plot time.Duration `yaml:"plot"`
}

// PollConfig sets polling intervals.
type PollConfig struct {
	// WindowInterval is the delay between window searches.
	// Default: 500ms
	WindowInterval time.Duration `yaml:"window_interval"`

	// FileInterval is the delay between open-file checks.
	// Default: 10ms
	FileInterval time.Duration `yaml:"file_interval"`
}

// ToolsConfig names external programs. Bare names are resolved
// against PATH when the program is launched.
type ToolsConfig struct {
	Xvfb     string `yaml:"xvfb"`
	Xdotool  string `yaml:"xdotool"`
	Xclip    string `yaml:"xclip"`
	Recorder string `yaml:"recorder"`
	Eeschema string `yaml:"eeschema"`
	Pcbnew   string `yaml:"pcbnew"`
	KicadCLI string `yaml:"kicad_cli"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// KicadConfigDir is the editor's per-user settings directory.
	// Workflows reset remembered dialog state in it before a run.
	// Default: ${HOME}/.config/kicad
	KicadConfigDir string `yaml:"kicad_config_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{Width: 800, Height: 600, Depth: 24},
		Timeouts: TimeoutsConfig{
			Window:         10 * time.Second,
			OptionalWindow: 3 * time.Second,
			File:           5 * time.Second,
			DisplayStart:   10 * time.Second,
			TerminateGrace: 5 * time.Second,
			RecorderGrace:  30 * time.Second,
			Settle:         2 * time.Second,
			Plot:           2 * time.Minute,
		},
		Poll: PollConfig{
			WindowInterval: 500 * time.Millisecond,
			FileInterval:   10 * time.Millisecond,
		},
		Tools: ToolsConfig{
			Xvfb:     "Xvfb",
			Xdotool:  "xdotool",
			Xclip:    "xclip",
			Recorder: "recordmydesktop",
			Eeschema: "eeschema",
			Pcbnew:   "pcbnew",
			KicadCLI: "kicad-cli",
		},
		Paths: PathsConfig{
			KicadConfigDir: "${HOME}/.config/kicad",
		},
	}
}

// Load loads the file named by FABRUN_CONFIG, or returns the expanded
// defaults when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Fields the
// file does not mention keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFile merges a YAML file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		// A file with no document in it means "all defaults".
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	if vars["HOME"] == "" {
		if home, err := os.UserHomeDir(); err == nil {
			vars["HOME"] = home
		}
	}

	c.Paths.KicadConfigDir = filepath.Clean(expandVars(c.Paths.KicadConfigDir, vars))
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display size must be positive, got %dx%d", c.Display.Width, c.Display.Height))
	}
	switch c.Display.Depth {
	case 8, 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("display.depth must be 8, 16, 24 or 32, got %d", c.Display.Depth))
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"timeouts.window", c.Timeouts.Window},
		{"timeouts.optional_window", c.Timeouts.OptionalWindow},
		{"timeouts.file", c.Timeouts.File},
		{"timeouts.display_start", c.Timeouts.DisplayStart},
		{"timeouts.terminate_grace", c.Timeouts.TerminateGrace},
		{"timeouts.recorder_grace", c.Timeouts.RecorderGrace},
		{"timeouts.plot", c.Timeouts.Plot},
		{"poll.window_interval", c.Poll.WindowInterval},
		{"poll.file_interval", c.Poll.FileInterval},
	}
	for _, timeout := range timeouts {
		if timeout.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", timeout.name, timeout.value))
		}
	}
	if c.Timeouts.Settle < 0 {
		errs = append(errs, fmt.Errorf("timeouts.settle must not be negative, got %v", c.Timeouts.Settle))
	}

	tools := []struct {
		name  string
		value string
	}{
		{"tools.xvfb", c.Tools.Xvfb},
		{"tools.xdotool", c.Tools.Xdotool},
		{"tools.xclip", c.Tools.Xclip},
		{"tools.recorder", c.Tools.Recorder},
		{"tools.eeschema", c.Tools.Eeschema},
		{"tools.pcbnew", c.Tools.Pcbnew},
		{"tools.kicad_cli", c.Tools.KicadCLI},
	}
	for _, tool := range tools {
		if tool.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", tool.name))
		}
	}

	if c.Paths.KicadConfigDir == "" || c.Paths.KicadConfigDir == "." {
		errs = append(errs, fmt.Errorf("paths.kicad_config_dir is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
