package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoTasks indicates the graph document parsed but carried no tasks array.
var ErrNoTasks = errors.New("task graph has no tasks array")

// GraphStats holds cumulative run statistics at the graph root. Merged
// additively as tasks complete.
type GraphStats struct {
	TasksCompleted  int     `json:"tasksCompleted,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	FilesChanged    int     `json:"filesChanged,omitempty"`
	LinesAdded      int     `json:"linesAdded,omitempty"`
	LinesRemoved    int     `json:"linesRemoved,omitempty"`
}

// TaskGraph is the root document persisted as JSON. Task order in the list is
// preserved on write for stability; scheduling does not depend on it.
type TaskGraph struct {
	Title   string      `json:"title"`
	Branch  string      `json:"branch,omitempty"`
	Created string      `json:"created,omitempty"`
	Sources []string    `json:"sources,omitempty"`
	Tasks   []Task      `json:"tasks"`
	Stats   *GraphStats `json:"stats,omitempty"`
}

// Load reads and parses the task graph at path. Fails with a specific error
// when the file is missing, the JSON is invalid, or the document lacks a
// tasks array. The runner calls this fresh at the top of every iteration:
// the agent may have rewritten the file on disk, so an in-memory copy is
// never trusted across iterations.
func Load(path string) (*TaskGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("task graph %s not found", path)
		}
		return nil, fmt.Errorf("reading task graph %s: %w", path, err)
	}

	// Probe for the tasks array explicitly so "missing" is distinguishable
	// from "empty" before the full decode.
	var probe struct {
		Tasks *[]Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing task graph %s: %w", path, err)
	}
	if probe.Tasks == nil {
		return nil, fmt.Errorf("task graph %s: %w", path, ErrNoTasks)
	}

	var g TaskGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing task graph %s: %w", path, err)
	}

	return &g, nil
}

// Save atomically rewrites the task graph at path using a temp file + rename,
// so concurrent readers never observe a torn document.
func Save(path string, g *TaskGraph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling task graph: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating task graph directory: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing task graph temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing task graph %s: %w", path, err)
	}

	return nil
}

// Find returns a pointer to the task with the given id, or nil.
func (g *TaskGraph) Find(id int) *Task {
	for i := range g.Tasks {
		if g.Tasks[i].ID == id {
			return &g.Tasks[i]
		}
	}
	return nil
}

// SetStatus updates the status of the task with the given id.
func (g *TaskGraph) SetStatus(id int, status Status) error {
	t := g.Find(id)
	if t == nil {
		return fmt.Errorf("task %d not found", id)
	}
	t.Status = status
	return nil
}

// MergeStats attaches stats to the task with the given id and folds them into
// the graph's cumulative root stats.
func (g *TaskGraph) MergeStats(id int, stats TaskStats) error {
	t := g.Find(id)
	if t == nil {
		return fmt.Errorf("task %d not found", id)
	}
	t.Stats = &stats

	if g.Stats == nil {
		g.Stats = &GraphStats{}
	}
	g.Stats.TasksCompleted++
	g.Stats.DurationSeconds += stats.DurationSeconds
	g.Stats.FilesChanged += stats.FilesChanged
	g.Stats.LinesAdded += stats.LinesAdded
	g.Stats.LinesRemoved += stats.LinesRemoved
	return nil
}
