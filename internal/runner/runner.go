// Package runner drives the build loop: select a task, spawn the agent,
// supervise it through the lock file, fold the completion signal back into
// the task graph, repeat.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/loomdev/loom/internal/agent"
	"github.com/loomdev/loom/internal/events"
	"github.com/loomdev/loom/internal/gitstat"
	"github.com/loomdev/loom/internal/graph"
	"github.com/loomdev/loom/internal/history"
	"github.com/loomdev/loom/internal/ipc"
	"github.com/loomdev/loom/internal/scheduler"
)

// Outcome is the terminal state of a build loop run. Complete, deadlocked,
// and budget-exhausted must remain distinguishable in output; stopped covers
// an external stop request or interrupt.
type Outcome int

const (
	OutcomeComplete Outcome = iota
	OutcomeDeadlocked
	OutcomeBudgetExhausted
	OutcomeStopped
)

// String returns the operator-facing name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeDeadlocked:
		return "deadlocked"
	case OutcomeBudgetExhausted:
		return "budget-exhausted"
	default:
		return "stopped"
	}
}

// ErrAgentFailing is returned when the spawn circuit breaker opens after
// repeated instant agent failures, instead of burning the whole iteration
// budget on a broken agent binary.
var ErrAgentFailing = errors.New("agent failing repeatedly, aborting")

// Config configures a build loop run.
type Config struct {
	GraphPath  string // Task graph JSON document
	LockPath   string // Liveness record for the running agent
	SignalPath string // Completion signal dropped by the agent
	TaskPath   string // Where the current task payload is written for the agent
	Dir        string // Target project directory

	AgentCommand string
	AgentArgs    []string
	Mode         agent.Mode

	MaxIterations  int
	IterationDelay time.Duration
	PollInterval   time.Duration
	Grace          time.Duration

	Bus     *events.Bus   // Optional progress events
	History history.Store // Optional run history
}

// Result reports how a run ended.
type Result struct {
	Outcome    Outcome
	Iterations int
	Completed  int // Tasks whose completion signal was consumed
	Blocked    int // Blocked count at exit (meaningful for deadlock)
}

// Runner executes the build loop.
type Runner struct {
	cfg     Config
	breaker *spawnBreaker
}

// New creates a runner. MaxIterations must be positive.
func New(cfg Config) *Runner {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 25
	}
	return &Runner{
		cfg:     cfg,
		breaker: newSpawnBreaker(),
	}
}

// Run executes the loop until all tasks complete, the graph deadlocks, the
// iteration budget is exhausted, or the run is stopped externally. The graph
// is validated once up front and re-read from disk at the top of every
// iteration: the agent rewrites it, so no in-memory copy survives an
// iteration.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	g, err := r.loadGraph()
	if err != nil {
		return Result{}, err
	}
	if err := scheduler.ValidateIDs(g.Tasks); err != nil {
		return Result{}, fmt.Errorf("invalid task graph: %w", err)
	}
	if circular := scheduler.DetectCircularDependencies(g.Tasks); len(circular) > 0 {
		return Result{}, fmt.Errorf("task graph has circular dependencies involving tasks %v", circular)
	}

	var runID int64
	if r.cfg.History != nil {
		if runID, err = r.cfg.History.BeginRun(ctx, "build"); err != nil {
			log.Printf("WARNING: could not record run start: %v", err)
		}
	}

	result := Result{}
	var runErr error

	for result.Iterations < r.cfg.MaxIterations {
		if ctx.Err() != nil {
			result.Outcome = OutcomeStopped
			break
		}

		// Loading: always fresh from disk.
		if g, err = r.loadGraph(); err != nil {
			runErr = err
			result.Outcome = OutcomeStopped
			break
		}

		// SelectTask.
		task := scheduler.SelectNextTask(g.Tasks)
		if task == nil {
			if scheduler.HasPendingTasks(g.Tasks) {
				result.Outcome = OutcomeDeadlocked
				result.Blocked = scheduler.CountBlockedTasks(g.Tasks)
			} else {
				result.Outcome = OutcomeComplete
			}
			break
		}

		result.Iterations++
		r.publish(events.TopicLoop, events.IterationStartedEvent{
			Iteration: result.Iterations,
			Blocked:   scheduler.CountBlockedTasks(g.Tasks),
			Timestamp: time.Now(),
		})

		// Mark in_progress before spawning so a second observer sees the
		// claim even if the agent dies instantly.
		_ = g.SetStatus(task.ID, graph.StatusInProgress)
		if err := graph.Save(r.cfg.GraphPath, g); err != nil {
			runErr = err
			result.Outcome = OutcomeStopped
			break
		}

		baseline, baselineErr := gitstat.Head(r.cfg.Dir)

		iterStart := time.Now()
		spawnResult, err := r.runAgentForTask(ctx, task)
		if err != nil {
			if errors.Is(err, ErrAgentFailing) {
				runErr = err
				result.Outcome = OutcomeStopped
				break
			}
			// Spawn failures are logged and the loop moves on; the task
			// stays in_progress for the operator.
			log.Printf("ERROR: spawning agent for task %d: %v", task.ID, err)
			r.publish(events.TopicTask, events.AgentFailedEvent{TaskID: task.ID, Err: err, Timestamp: time.Now()})
			r.recordIteration(ctx, runID, task, "agent_failed", iterStart, 0, gitstat.Stats{})
			r.delay(ctx)
			continue
		}

		if spawnResult.ExitErr != nil {
			log.Printf("agent exited with error on task %d: %v", task.ID, spawnResult.ExitErr)
			r.publish(events.TopicTask, events.AgentFailedEvent{TaskID: task.ID, Err: spawnResult.ExitErr, Timestamp: time.Now()})
		}

		// Updating: reload the graph the agent may have rewritten, then fold
		// in the completion signal if one was left.
		if g, err = r.loadGraph(); err != nil {
			runErr = err
			result.Outcome = OutcomeStopped
			break
		}

		sig := ipc.ConsumeSignal(r.cfg.SignalPath)
		outcome := "no_signal"
		var stats gitstat.Stats
		if sig != nil {
			outcome = "completed"
			result.Completed++
			if baselineErr == nil {
				if s, err := gitstat.Diff(r.cfg.Dir, baseline); err == nil {
					stats = s
				}
			}
			r.applyCompletion(g, sig, stats)
			if err := graph.Save(r.cfg.GraphPath, g); err != nil {
				log.Printf("WARNING: could not save task stats: %v", err)
			}
			r.publish(events.TopicTask, events.TaskCompletedEvent{
				ID:           sig.TaskID,
				Duration:     sig.Duration(),
				FilesChanged: stats.FilesChanged,
				Timestamp:    time.Now(),
			})
		}
		if spawnResult.Stopped {
			r.recordIteration(ctx, runID, task, "stopped", iterStart, sigDuration(sig), stats)
			result.Outcome = OutcomeStopped
			break
		}

		r.recordIteration(ctx, runID, task, outcome, iterStart, sigDuration(sig), stats)
		r.delay(ctx)
	}

	if result.Iterations >= r.cfg.MaxIterations && result.Outcome == OutcomeComplete && runErr == nil {
		// The budget ran out before a terminal scheduling state was reached.
		if g, err := r.loadGraph(); err == nil && scheduler.HasPendingTasks(g.Tasks) {
			result.Outcome = OutcomeBudgetExhausted
		}
	}

	r.publish(events.TopicLoop, events.LoopFinishedEvent{
		Outcome:    result.Outcome.String(),
		Iterations: result.Iterations,
		Timestamp:  time.Now(),
	})
	if r.cfg.History != nil && runID != 0 {
		if err := r.cfg.History.FinishRun(ctx, runID, result.Outcome.String(), result.Iterations); err != nil {
			log.Printf("WARNING: could not record run finish: %v", err)
		}
	}

	return result, runErr
}

// runAgentForTask writes the task payload for the agent and supervises one
// invocation through the spawn breaker.
func (r *Runner) runAgentForTask(ctx context.Context, task *graph.Task) (agent.RunResult, error) {
	if err := r.writeTaskPayload(task); err != nil {
		return agent.RunResult{}, err
	}

	r.publish(events.TopicTask, events.TaskStartedEvent{
		ID:        task.ID,
		Title:     task.Title,
		Timestamp: time.Now(),
	})

	inv := agent.Invocation{
		Command: r.cfg.AgentCommand,
		Args:    r.cfg.AgentArgs,
		Mode:    r.cfg.Mode,
		Prompt:  taskPrompt(task, r.cfg.TaskPath),
		Dir:     r.cfg.Dir,
	}
	opts := agent.SpawnOptions{
		LockPath: r.cfg.LockPath,
		LockContext: ipc.LockRecord{
			TaskID:    task.ID,
			TaskTitle: task.Title,
			Mode:      r.cfg.Mode.String(),
		},
		PollInterval: r.cfg.PollInterval,
		Grace:        r.cfg.Grace,
	}

	return r.breaker.spawn(ctx, inv, opts)
}

// writeTaskPayload persists the selected task as JSON for the agent to read.
func (r *Runner) writeTaskPayload(task *graph.Task) error {
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling task payload: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.cfg.TaskPath), 0755); err != nil {
		return fmt.Errorf("creating task payload directory: %w", err)
	}
	if err := os.WriteFile(r.cfg.TaskPath, data, 0644); err != nil {
		return fmt.Errorf("writing task payload: %w", err)
	}
	return nil
}

// taskPrompt builds the instruction text handed to the agent.
func taskPrompt(task *graph.Task, taskPath string) string {
	return fmt.Sprintf(
		"Work on task %d (%s), described in %s. Update the task's status in the task graph when done, then run `loom notify complete`.",
		task.ID, task.Title, taskPath)
}

// applyCompletion marks the signalled task completed (unless the agent
// already did) and merges stats into the task and graph.
func (r *Runner) applyCompletion(g *graph.TaskGraph, sig *ipc.CompletionSignal, stats gitstat.Stats) {
	t := g.Find(sig.TaskID)
	if t == nil {
		log.Printf("WARNING: completion signal for unknown task %d", sig.TaskID)
		return
	}
	if !t.IsCompleted() {
		t.Status = graph.StatusCompleted
	}
	_ = g.MergeStats(sig.TaskID, graph.TaskStats{
		StartedAt:       sig.StartedAt,
		CompletedAt:     sig.CompletedAt,
		DurationSeconds: sig.Duration().Seconds(),
		FilesChanged:    stats.FilesChanged,
		LinesAdded:      stats.LinesAdded,
		LinesRemoved:    stats.LinesRemoved,
	})
}

// recordIteration persists one iteration to run history, when configured.
func (r *Runner) recordIteration(ctx context.Context, runID int64, task *graph.Task, outcome string, started time.Time, duration time.Duration, stats gitstat.Stats) {
	if r.cfg.History == nil || runID == 0 {
		return
	}
	rec := history.IterationRecord{
		RunID:           runID,
		TaskID:          task.ID,
		TaskTitle:       task.Title,
		Outcome:         outcome,
		StartedAt:       started,
		CompletedAt:     time.Now(),
		DurationSeconds: duration.Seconds(),
		FilesChanged:    stats.FilesChanged,
		LinesAdded:      stats.LinesAdded,
		LinesRemoved:    stats.LinesRemoved,
	}
	if err := r.cfg.History.RecordIteration(ctx, rec); err != nil {
		log.Printf("WARNING: could not record iteration: %v", err)
	}
}

// delay sleeps between iterations so an instantly-failing agent doesn't spin
// the loop. Cut short by cancellation.
func (r *Runner) delay(ctx context.Context) {
	if r.cfg.IterationDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.cfg.IterationDelay):
	}
}

// publish sends an event when a bus is configured.
func (r *Runner) publish(topic string, e events.Event) {
	if r.cfg.Bus != nil {
		r.cfg.Bus.Publish(topic, e)
	}
}

func sigDuration(sig *ipc.CompletionSignal) time.Duration {
	if sig == nil {
		return 0
	}
	return sig.Duration()
}
