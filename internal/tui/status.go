// Package tui renders the live status display. It is a read-only observer:
// it discovers running agents purely through the lock files and the task
// graph on disk, never through a channel to the loop process.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loomdev/loom/internal/graph"
	"github.com/loomdev/loom/internal/ipc"
	"github.com/loomdev/loom/internal/scheduler"
)

// pollEvery is how often the display re-reads the lock files and graph.
const pollEvery = 500 * time.Millisecond

// snapshot is one observation of the on-disk state.
type snapshot struct {
	build *ipc.LockRecord // nil when no live build agent
	watch *ipc.LockRecord // nil when no live watch agent
	graph *graph.TaskGraph
}

type tickMsg time.Time

// Model is the bubbletea model for `loom status`.
type Model struct {
	graphPath     string
	buildLockPath string
	watchLockPath string

	spin spinner.Model
	snap snapshot
}

// New creates the status model.
func New(graphPath, buildLockPath, watchLockPath string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle
	return Model{
		graphPath:     graphPath,
		buildLockPath: buildLockPath,
		watchLockPath: watchLockPath,
		spin:          s,
	}
}

// Init starts the spinner and the poll ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick(), poll(m))
}

func tick() tea.Cmd {
	return tea.Tick(pollEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// poll re-reads the on-disk state. A lock whose pid is no longer alive is
// treated as absent: the record is stale, not a live run.
func poll(m Model) tea.Cmd {
	return func() tea.Msg {
		var snap snapshot
		if rec := ipc.ReadLock(m.buildLockPath); rec != nil && ipc.Alive(rec.PID) {
			snap.build = rec
		}
		if rec := ipc.ReadLock(m.watchLockPath); rec != nil && ipc.Alive(rec.PID) {
			snap.watch = rec
		}
		if g, err := graph.Load(m.graphPath); err == nil {
			snap.graph = g
		}
		return snap
	}
}

// Update handles key, tick, and snapshot messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(tick(), poll(m))
	case snapshot:
		m.snap = msg
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the status display.
func (m Model) View() string {
	out := titleStyle.Render("loom status") + "\n\n"

	switch {
	case m.snap.build != nil:
		rec := m.snap.build
		out += fmt.Sprintf("%s building task %d", m.spin.View(), rec.TaskID)
		if rec.TaskTitle != "" {
			out += fmt.Sprintf(" (%s)", rec.TaskTitle)
		}
		out += runningStyle.Render(elapsed(rec.Started)) + "\n"
	case m.snap.watch != nil:
		out += fmt.Sprintf("%s processing comment batch", m.spin.View())
		out += runningStyle.Render(elapsed(m.snap.watch.Started)) + "\n"
	default:
		out += idleStyle.Render("no agent running") + "\n"
	}

	if g := m.snap.graph; g != nil {
		var pending, inProgress, completed int
		for i := range g.Tasks {
			switch g.Tasks[i].Status {
			case graph.StatusPending:
				pending++
			case graph.StatusInProgress:
				inProgress++
			case graph.StatusCompleted:
				completed++
			}
		}
		blocked := scheduler.CountBlockedTasks(g.Tasks)

		out += "\n" + labelStyle.Render(g.Title) + "\n"
		out += fmt.Sprintf("  %d completed / %d in progress / %d pending", completed, inProgress, pending)
		if blocked > 0 {
			out += blockedStyle.Render(fmt.Sprintf("  (%d blocked)", blocked))
		}
		out += "\n"
	}

	out += helpStyle.Render("q: quit")
	return out
}

// elapsed renders the time since an RFC3339 timestamp, or nothing when the
// timestamp is unparseable.
func elapsed(started string) string {
	t, err := time.Parse(time.RFC3339, started)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("  %s", time.Since(t).Round(time.Second))
}
