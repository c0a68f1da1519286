package history

import (
	"context"
	"fmt"
	"time"
)

// BeginRun inserts a run row and returns its id.
func (s *SQLiteStore) BeginRun(ctx context.Context, mode string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (mode, started_at) VALUES (?, ?)
	`, mode, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// FinishRun records the terminal outcome and iteration count of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID int64, outcome string, iterations int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET outcome = ?, iterations = ?, finished_at = ? WHERE id = ?
	`, outcome, iterations, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %d", runID)
	}
	return nil
}

// RecordIteration persists a single iteration record.
func (s *SQLiteStore) RecordIteration(ctx context.Context, rec IterationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO iterations
			(run_id, task_id, task_title, outcome, started_at, completed_at,
			 duration_seconds, files_changed, lines_added, lines_removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.TaskID, rec.TaskTitle, rec.Outcome,
		nullTime(rec.StartedAt), nullTime(rec.CompletedAt),
		rec.DurationSeconds, rec.FilesChanged, rec.LinesAdded, rec.LinesRemoved)
	if err != nil {
		return fmt.Errorf("failed to insert iteration: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, COALESCE(outcome, ''), iterations, started_at, COALESCE(finished_at, started_at)
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		// The COALESCE expression has no declared column type, so the driver
		// returns it as a string rather than a time.Time.
		var finished string
		if err := rows.Scan(&r.ID, &r.Mode, &r.Outcome, &r.Iterations, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// ListIterations returns the iterations of a run in execution order.
func (s *SQLiteStore) ListIterations(ctx context.Context, runID int64) ([]IterationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, COALESCE(task_id, 0), COALESCE(task_title, ''), outcome,
		       COALESCE(started_at, ''), COALESCE(completed_at, ''),
		       duration_seconds, files_changed, lines_added, lines_removed
		FROM iterations
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query iterations: %w", err)
	}
	defer rows.Close()

	var recs []IterationRecord
	for rows.Next() {
		var rec IterationRecord
		var started, completed string
		if err := rows.Scan(&rec.RunID, &rec.TaskID, &rec.TaskTitle, &rec.Outcome,
			&started, &completed,
			&rec.DurationSeconds, &rec.FilesChanged, &rec.LinesAdded, &rec.LinesRemoved); err != nil {
			return nil, fmt.Errorf("failed to scan iteration: %w", err)
		}
		rec.StartedAt = parseTime(started)
		rec.CompletedAt = parseTime(completed)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating iterations: %w", err)
	}
	return recs, nil
}

// nullTime maps the zero time to NULL for storage.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// parseTime parses the formats SQLite hands back, returning the zero time on
// failure.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
