// Package scheduler selects the next runnable task from a task graph.
// Every function here is a pure function of the task list it is handed; the
// runner reloads the graph from disk each iteration and calls back in.
package scheduler

import (
	"sort"

	"github.com/loomdev/loom/internal/graph"
)

// CompletedIDs collects the ids of all completed tasks.
func CompletedIDs(tasks []graph.Task) map[int]bool {
	done := make(map[int]bool)
	for i := range tasks {
		if tasks[i].IsCompleted() {
			done[tasks[i].ID] = true
		}
	}
	return done
}

// DependenciesSatisfied reports whether every dependency of the task appears
// in the completed set. A task with no dependencies is always satisfied.
// A dependency that is merely in_progress does not satisfy.
func DependenciesSatisfied(t *graph.Task, done map[int]bool) bool {
	for _, dep := range t.Dependencies {
		if !done[dep] {
			return false
		}
	}
	return true
}

// SelectNextTask returns the next runnable task: pending, with all
// dependencies completed, ordered by priority ascending (missing priority
// sorts last) and id ascending as the tie-break. The id tie-break gives
// stable FIFO-within-priority behavior for identical graphs. Returns nil when
// nothing is runnable.
func SelectNextTask(tasks []graph.Task) *graph.Task {
	done := CompletedIDs(tasks)

	var available []*graph.Task
	for i := range tasks {
		t := &tasks[i]
		if t.IsPending() && DependenciesSatisfied(t, done) {
			available = append(available, t)
		}
	}
	if len(available) == 0 {
		return nil
	}

	sort.Slice(available, func(i, j int) bool {
		pi, pj := available[i].EffectivePriority(), available[j].EffectivePriority()
		if pi != pj {
			return pi < pj
		}
		return available[i].ID < available[j].ID
	})

	return available[0]
}

// CountBlockedTasks returns the number of pending tasks with at least one
// unsatisfied dependency.
func CountBlockedTasks(tasks []graph.Task) int {
	done := CompletedIDs(tasks)

	count := 0
	for i := range tasks {
		t := &tasks[i]
		if t.IsPending() && len(t.Dependencies) > 0 && !DependenciesSatisfied(t, done) {
			count++
		}
	}
	return count
}

// HasPendingTasks reports whether any task is still pending.
func HasPendingTasks(tasks []graph.Task) bool {
	for i := range tasks {
		if tasks[i].IsPending() {
			return true
		}
	}
	return false
}

// IsDeadlocked reports whether pending tasks exist but none are runnable.
// This does not distinguish "blocked on an incomplete but completable
// dependency" from a true cycle; see DetectCircularDependencies for that.
func IsDeadlocked(tasks []graph.Task) bool {
	return HasPendingTasks(tasks) && SelectNextTask(tasks) == nil
}
