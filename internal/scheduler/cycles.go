package scheduler

import (
	"fmt"
	"sort"

	"github.com/gammazero/toposort"

	"github.com/loomdev/loom/internal/graph"
)

// DetectCircularDependencies walks each task's dependency chain depth-first
// and reports every task id reachable from itself. A task depending on
// itself counts. Advisory only: it never blocks scheduling on its own, but
// callers should run it once at graph load and fail fast on a non-empty
// result instead of discovering the deadlock at runtime.
func DetectCircularDependencies(tasks []graph.Task) []int {
	deps := make(map[int][]int, len(tasks))
	for i := range tasks {
		deps[tasks[i].ID] = tasks[i].Dependencies
	}

	circular := make(map[int]bool)
	for id := range deps {
		if onCycle(id, id, deps, make(map[int]bool)) {
			circular[id] = true
		}
	}

	ids := make([]int, 0, len(circular))
	for id := range circular {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// onCycle reports whether target is reachable from id's dependency chain.
func onCycle(target, id int, deps map[int][]int, seen map[int]bool) bool {
	for _, dep := range deps[id] {
		if dep == target {
			return true
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		if onCycle(target, dep, deps, seen) {
			return true
		}
	}
	return false
}

// Order returns a topological ordering of task ids, verifying along the way
// that every referenced dependency id exists and that the graph is acyclic.
// Used by `loom validate` and as the load-time fail-fast check.
func Order(tasks []graph.Task) ([]int, error) {
	known := make(map[int]bool, len(tasks))
	for i := range tasks {
		known[tasks[i].ID] = true
	}
	for i := range tasks {
		for _, dep := range tasks[i].Dependencies {
			if !known[dep] {
				return nil, fmt.Errorf("task %d depends on non-existent task %d", tasks[i].ID, dep)
			}
		}
	}

	var edges []toposort.Edge
	for i := range tasks {
		t := &tasks[i]
		if len(t.Dependencies) == 0 {
			// Edge from nil ensures dependency-free tasks appear in the result.
			edges = append(edges, toposort.Edge{nil, t.ID})
		} else {
			for _, dep := range t.Dependencies {
				edges = append(edges, toposort.Edge{dep, t.ID})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("task graph contains cycle: %w", err)
	}

	order := make([]int, 0, len(tasks))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(int))
		}
	}
	return order, nil
}

// ValidateIDs checks that task ids are unique within the graph.
func ValidateIDs(tasks []graph.Task) error {
	seen := make(map[int]bool, len(tasks))
	for i := range tasks {
		id := tasks[i].ID
		if seen[id] {
			return fmt.Errorf("duplicate task id %d", id)
		}
		seen[id] = true
	}
	return nil
}
