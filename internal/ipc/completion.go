package ipc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CompletionSignal is the ephemeral record the agent (or `loom notify`)
// writes when a task finishes. The runner consumes it after each iteration to
// update task stats; absence just means no stats update happens.
type CompletionSignal struct {
	TaskID      int    `json:"taskId"`
	StartedAt   string `json:"startedAt"`
	CompletedAt string `json:"completedAt"`
}

// Duration computes the elapsed time between the signal's timestamps.
// Returns 0 when either timestamp is missing or unparseable.
func (s *CompletionSignal) Duration() time.Duration {
	start, err := time.Parse(time.RFC3339, s.StartedAt)
	if err != nil {
		return 0
	}
	end, err := time.Parse(time.RFC3339, s.CompletedAt)
	if err != nil {
		return 0
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// WriteSignal persists a completion signal, creating parent directories as
// needed.
func WriteSignal(path string, sig CompletionSignal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating signal directory: %w", err)
	}
	data, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling completion signal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing completion signal %s: %w", path, err)
	}
	return nil
}

// ConsumeSignal reads and deletes the completion signal at path. Returns nil
// when the file is absent or corrupt; a signal left by a crashed run is
// removed on read either way.
func ConsumeSignal(path string) *CompletionSignal {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	// Delete before parsing so a corrupt signal doesn't stick around.
	_ = os.Remove(path)

	var sig CompletionSignal
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil
	}
	return &sig
}
