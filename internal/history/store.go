// Package history persists per-iteration execution records so operators can
// inspect what past runs did after the terminal scrolls away.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// IterationRecord is one build or watch iteration as persisted.
type IterationRecord struct {
	RunID           int64
	TaskID          int
	TaskTitle       string
	Outcome         string // "completed", "agent_failed", "stopped", "no_signal"
	StartedAt       time.Time
	CompletedAt     time.Time
	DurationSeconds float64
	FilesChanged    int
	LinesAdded      int
	LinesRemoved    int
}

// RunRecord is one invocation of the build or watch loop.
type RunRecord struct {
	ID         int64
	Mode       string // "build" or "watch"
	Outcome    string
	Iterations int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store defines the persistence interface for run history.
type Store interface {
	BeginRun(ctx context.Context, mode string) (int64, error)
	FinishRun(ctx context.Context, runID int64, outcome string, iterations int) error
	RecordIteration(ctx context.Context, rec IterationRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	ListIterations(ctx context.Context, runID int64) ([]IterationRecord, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the history database at dbPath.
// Creates parent directories if needed. Enables WAL mode, foreign keys, and
// a busy timeout.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	// modernc.org/sqlite doesn't support _foreign_keys in the connection
	// string; enabled via PRAGMA below.
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_time_format=sqlite", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(2)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewMemoryStore creates an in-memory store for testing. Uses a shared cache
// so multiple connections see the same database.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file::memory:?mode=memory&cache=shared&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(2)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
