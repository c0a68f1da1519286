package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.loom/config.json
// Project: .loom/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".loom", "config.json")
	projectPath := filepath.Join(".loom", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges non-zero fields into
// the base config. Missing files are silently skipped.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.Agent.Command != "" {
		base.Agent.Command = loaded.Agent.Command
	}
	if loaded.Agent.Args != nil {
		base.Agent.Args = loaded.Agent.Args
	}
	if loaded.Agent.Mode != "" {
		base.Agent.Mode = loaded.Agent.Mode
	}

	if loaded.Loop.MaxIterations != 0 {
		base.Loop.MaxIterations = loaded.Loop.MaxIterations
	}
	if loaded.Loop.IterationDelayMS != 0 {
		base.Loop.IterationDelayMS = loaded.Loop.IterationDelayMS
	}
	if loaded.Loop.PollIntervalMS != 0 {
		base.Loop.PollIntervalMS = loaded.Loop.PollIntervalMS
	}
	if loaded.Loop.TerminateGraceMS != 0 {
		base.Loop.TerminateGraceMS = loaded.Loop.TerminateGraceMS
	}

	if loaded.Watch.Paths != nil {
		base.Watch.Paths = loaded.Watch.Paths
	}
	if loaded.Watch.StopWord != "" {
		base.Watch.StopWord = loaded.Watch.StopWord
	}
	if loaded.Watch.DebounceMS != 0 {
		base.Watch.DebounceMS = loaded.Watch.DebounceMS
	}
	if loaded.Watch.Command != nil {
		base.Watch.Command = loaded.Watch.Command
	}
	if loaded.Watch.MaxCycles != 0 {
		base.Watch.MaxCycles = loaded.Watch.MaxCycles
	}

	return nil
}
