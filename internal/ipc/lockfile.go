// Package ipc implements the filesystem-as-IPC records loom processes use to
// coordinate: the lock file that marks a live agent run and the completion
// signal the agent drops when it finishes a task. Multiple independent
// readers and writers race on these files by design, so every reader treats
// "absent or malformed" as a normal, non-exceptional state.
package ipc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LockRecord is the liveness record for a running agent process. Context
// fields vary by caller: build runs carry the task, watch runs carry the mode
// and comments path. The lock file is a discovery mechanism, not a mutex;
// concurrent writers are not serialized and the last writer wins.
type LockRecord struct {
	PID          int    `json:"pid"`
	Started      string `json:"started"`
	TaskID       int    `json:"task_id,omitempty"`
	TaskTitle    string `json:"task_title,omitempty"`
	Mode         string `json:"mode,omitempty"`
	CommentsPath string `json:"comments_path,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// NewLockRecord returns a record for the given pid stamped with the current
// time.
func NewLockRecord(pid int) LockRecord {
	return LockRecord{PID: pid, Started: time.Now().Format(time.RFC3339)}
}

// WriteLock serializes the record to path, creating parent directories as
// needed. A failed write is fatal for the caller: without the liveness record
// no external observer can see or stop the run.
func WriteLock(path string, rec LockRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lock record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing lock file %s: %w", path, err)
	}
	return nil
}

// ReadLock returns the lock record at path, or nil when the file is absent,
// unparseable, or missing the required pid/started fields. All of those mean
// the same thing to callers like the status display: no active process.
func ReadLock(path string) *LockRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rec LockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if rec.PID == 0 || rec.Started == "" {
		return nil
	}
	return &rec
}

// CleanupLock removes the lock file. Best effort: a file already gone is a
// benign race with another cleaner, not an error.
func CleanupLock(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file %s: %w", path, err)
	}
	return nil
}
