package watcher

import (
	"sort"
	"time"
)

// accumulator collects changed-file paths between trigger checks. It is
// owned by the watch loop alone; draining clears it unconditionally so each
// batch is evaluated fresh against only the files changed since the last
// check, and the backlog can never grow without bound.
type accumulator struct {
	files      map[string]bool
	lastChange time.Time
}

func newAccumulator() *accumulator {
	return &accumulator{files: make(map[string]bool)}
}

// add records a changed path.
func (a *accumulator) add(path string) {
	a.files[path] = true
	a.lastChange = time.Now()
}

// pending reports whether any changes are waiting.
func (a *accumulator) pending() bool {
	return len(a.files) > 0
}

// quietFor reports whether no change has arrived within d. Trigger checks
// wait for a quiet window so a burst of saves becomes one batch.
func (a *accumulator) quietFor(d time.Duration) bool {
	return time.Since(a.lastChange) >= d
}

// drain returns the accumulated paths sorted and resets the accumulator.
// The clear happens whether or not the caller finds anything in the batch.
func (a *accumulator) drain() []string {
	paths := make([]string, 0, len(a.files))
	for p := range a.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	a.files = make(map[string]bool)
	return paths
}
