package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name string, cfg *Config) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		global  *Config
		project *Config
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "no files returns defaults",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Agent.Command != "claude" {
					t.Errorf("expected default agent command, got %q", cfg.Agent.Command)
				}
				if cfg.Loop.MaxIterations != 25 {
					t.Errorf("expected default iteration budget, got %d", cfg.Loop.MaxIterations)
				}
				if cfg.Watch.StopWord != "AI!" {
					t.Errorf("expected default stop word, got %q", cfg.Watch.StopWord)
				}
			},
		},
		{
			name:   "global overrides defaults",
			global: &Config{Agent: AgentConfig{Command: "aider", Mode: "auto"}},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Agent.Command != "aider" || cfg.Agent.Mode != "auto" {
					t.Errorf("global override not applied: %+v", cfg.Agent)
				}
				// Untouched fields keep their defaults.
				if cfg.Loop.MaxIterations != 25 {
					t.Errorf("default lost during merge: %d", cfg.Loop.MaxIterations)
				}
			},
		},
		{
			name:    "project overrides global",
			global:  &Config{Agent: AgentConfig{Mode: "auto"}, Loop: LoopConfig{MaxIterations: 50}},
			project: &Config{Agent: AgentConfig{Mode: "edits"}},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Agent.Mode != "edits" {
					t.Errorf("project should win, got mode %q", cfg.Agent.Mode)
				}
				if cfg.Loop.MaxIterations != 50 {
					t.Errorf("global loop setting lost: %d", cfg.Loop.MaxIterations)
				}
			},
		},
		{
			name:    "watch paths replace, not append",
			project: &Config{Watch: WatchConfig{Paths: []string{"src", "docs"}}},
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Watch.Paths) != 2 || cfg.Watch.Paths[0] != "src" {
					t.Errorf("expected [src docs], got %v", cfg.Watch.Paths)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			globalPath := filepath.Join(dir, "global.json")
			projectPath := filepath.Join(dir, "project.json")
			if tt.global != nil {
				writeConfig(t, dir, "global.json", tt.global)
			}
			if tt.project != nil {
				writeConfig(t, dir, "project.json", tt.project)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Agent.Mode = "edits"
	cfg.Watch.StopWord = "FIXME-NOW"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load("", path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Agent.Mode != "edits" || loaded.Watch.StopWord != "FIXME-NOW" {
		t.Errorf("round trip lost settings: %+v", loaded)
	}
}
