package graph

// Status is the lifecycle state of a task.
// Transitions: pending -> in_progress (runner marks before spawning the
// agent), in_progress -> completed (agent or runner after a success signal).
// There is no automatic rollback from in_progress to pending; a crashed agent
// leaves the task where it was.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// TaskStats holds execution telemetry attached after a task completes.
// Purely additive; the scheduler never reads it.
type TaskStats struct {
	StartedAt       string  `json:"startedAt,omitempty"`
	CompletedAt     string  `json:"completedAt,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	FilesChanged    int     `json:"filesChanged,omitempty"`
	LinesAdded      int     `json:"linesAdded,omitempty"`
	LinesRemoved    int     `json:"linesRemoved,omitempty"`
}

// Task is one schedulable unit of work.
type Task struct {
	ID           int        `json:"id"`
	Title        string     `json:"title,omitempty"`
	Description  string     `json:"description,omitempty"`
	Steps        []string   `json:"steps,omitempty"`
	Status       Status     `json:"status"`
	Dependencies []int      `json:"dependencies,omitempty"`
	Priority     *int       `json:"priority,omitempty"` // nil means lowest priority
	Acceptance   []string   `json:"acceptance,omitempty"`
	Stats        *TaskStats `json:"stats,omitempty"`
}

// EffectivePriority returns the task's priority with absent treated as the
// lowest possible priority. Lower numbers schedule first.
func (t *Task) EffectivePriority() int {
	if t.Priority == nil {
		return int(^uint(0) >> 1) // max int
	}
	return *t.Priority
}

// IsPending reports whether the task is waiting to be scheduled.
func (t *Task) IsPending() bool { return t.Status == StatusPending }

// IsCompleted reports whether the task finished successfully.
func (t *Task) IsCompleted() bool { return t.Status == StatusCompleted }
