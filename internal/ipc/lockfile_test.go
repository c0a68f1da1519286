package ipc

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteReadLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "build.lock")

	rec := NewLockRecord(os.Getpid())
	rec.TaskID = 7
	rec.TaskTitle = "Wire the frobnicator"
	rec.Mode = "auto"

	if err := WriteLock(path, rec); err != nil {
		t.Fatalf("WriteLock failed: %v", err)
	}

	got := ReadLock(path)
	if got == nil {
		t.Fatal("ReadLock returned nil for a valid lock")
	}
	if got.PID != os.Getpid() || got.TaskID != 7 || got.Mode != "auto" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if _, err := time.Parse(time.RFC3339, got.Started); err != nil {
		t.Errorf("started timestamp not RFC3339: %q", got.Started)
	}
}

func TestReadLock_AbsentOrBroken(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string // empty string means don't create the file
	}{
		{name: "absent file"},
		{name: "malformed JSON", content: `{pid:`},
		{name: "missing pid field", content: `{"started": "2026-01-02T10:00:00Z", "task_id": 3}`},
		{name: "missing started field", content: `{"pid": 1234}`},
		{name: "empty object", content: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".lock")
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}
			if got := ReadLock(path); got != nil {
				t.Errorf("expected nil, got %+v", got)
			}
		})
	}
}

func TestCleanupLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.lock")
	if err := WriteLock(path, NewLockRecord(1234)); err != nil {
		t.Fatal(err)
	}

	if err := CleanupLock(path); err != nil {
		t.Fatalf("CleanupLock failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file still present after cleanup")
	}

	// Cleaning an already-removed lock is fine, any number of times.
	if err := CleanupLock(path); err != nil {
		t.Errorf("second cleanup errored: %v", err)
	}
	if err := CleanupLock(filepath.Join(t.TempDir(), "never-existed.lock")); err != nil {
		t.Errorf("cleanup of never-created path errored: %v", err)
	}
}
