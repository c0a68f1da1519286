package runner

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/loomdev/loom/internal/agent"
	"github.com/loomdev/loom/internal/graph"
)

// instantFailure is the duration under which a non-zero agent exit is
// treated as "the agent never really ran" for breaker accounting. A real
// task attempt that fails after doing work should not trip the breaker.
const instantFailure = 2 * time.Second

// loadGraph reads the task graph with a short retry window. The agent writes
// the graph with a temp-file rename, but other writers may not; a torn read
// mid-write shows up as a JSON parse error that resolves itself within
// milliseconds. After the window the last error is final and fatal.
func (r *Runner) loadGraph() (*graph.TaskGraph, error) {
	var g *graph.TaskGraph

	operation := func() error {
		var err error
		g, err = graph.Load(r.cfg.GraphPath)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Second

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return g, nil
}

// spawnBreaker wraps agent spawning in a circuit breaker so a broken agent
// binary (missing executable, bad flags) aborts the run after a few
// consecutive instant failures instead of consuming the iteration budget.
type spawnBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func newSpawnBreaker() *spawnBreaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "agent-spawn",
		MaxRequests: 1,
		Interval:    0, // Don't clear counts automatically
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// User cancellation is not an agent failure.
			return err == context.Canceled || err == context.DeadlineExceeded
		},
	})
	return &spawnBreaker{cb: cb}
}

// spawn runs one supervised agent invocation through the breaker. Failures
// counted against the breaker are spawn errors and instant non-zero exits;
// an open breaker surfaces as ErrAgentFailing.
func (b *spawnBreaker) spawn(ctx context.Context, inv agent.Invocation, opts agent.SpawnOptions) (agent.RunResult, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		res, err := agent.SpawnAndMonitor(ctx, inv, opts)
		if err != nil {
			return res, err
		}
		if res.ExitErr != nil && !res.Stopped && res.Duration < instantFailure {
			// Report the instant failure to the breaker but keep the result.
			return res, res.ExitErr
		}
		return res, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return agent.RunResult{}, ErrAgentFailing
		}
		if res, ok := result.(agent.RunResult); ok && res.Duration > 0 {
			// The agent ran and exited non-zero; the loop handles that as a
			// per-iteration failure, not a spawn error.
			return res, nil
		}
		return agent.RunResult{}, err
	}

	return result.(agent.RunResult), nil
}
