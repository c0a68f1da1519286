package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/loomdev/loom/internal/ipc"
)

// DefaultPollInterval is how often the monitor loop probes the two
// termination conditions. Liveness signals (child exit, lock deletion) are
// only observable via periodic syscalls, not a blocking primitive.
const DefaultPollInterval = 100 * time.Millisecond

// SpawnOptions configures the spawn-and-monitor protocol.
type SpawnOptions struct {
	LockPath     string         // Where the liveness record lives
	LockContext  ipc.LockRecord // Context fields merged into the record (task/mode)
	PollInterval time.Duration  // Monitor poll interval (default 100ms)
	Grace        time.Duration  // SIGTERM -> SIGKILL grace window
}

// RunResult reports how a supervised agent run ended.
type RunResult struct {
	Stopped  bool          // Lock file was deleted externally and the agent was terminated
	ExitErr  error         // Non-nil when the agent exited non-zero
	Duration time.Duration // Wall-clock time of the run
}

// SpawnAndMonitor runs the agent attached to the controlling terminal's
// stdio and supervises it through the lock file:
//
//  1. Start the child in the target directory, in its own process group,
//     with the lock path exported in its environment.
//  2. Record {pid, started, context} to the lock file immediately.
//  3. Poll until the child exits on its own, the lock file has been deleted
//     by an external actor (a stop request), or ctx is cancelled; the latter
//     two terminate the child gracefully-then-forcefully.
//  4. Release the handle and delete the lock file if still present.
//
// A failed lock write aborts the run: the supervisor cannot proceed without
// the liveness record other processes consult.
func SpawnAndMonitor(ctx context.Context, inv Invocation, opts SpawnOptions) (RunResult, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	cmd, err := inv.command()
	if err != nil {
		return RunResult{}, err
	}

	// Terminal attachment: an interactive human can watch and approve agent
	// actions live.
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = append(os.Environ(), inv.Env...)
	if opts.LockPath != "" {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", LockPathEnv, opts.LockPath))
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return RunResult{}, fmt.Errorf("starting agent %q: %w", inv.Command, err)
	}
	pid := cmd.Process.Pid

	rec := opts.LockContext
	rec.PID = pid
	rec.Started = start.Format(time.RFC3339)
	if err := ipc.WriteLock(opts.LockPath, rec); err != nil {
		ipc.Terminate(nil, pid, opts.Grace)
		_ = cmd.Wait()
		return RunResult{}, err
	}

	// cmd.Wait must run exactly once; the monitor loop polls its result
	// through this channel instead of blocking on it.
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	result := RunResult{}
	for {
		select {
		case waitErr := <-waitCh:
			// Child exited on its own.
			result.ExitErr = waitErr
			result.Duration = time.Since(start)
			_ = ipc.CleanupLock(opts.LockPath)
			return result, nil
		default:
		}

		stopped := ctx.Err() != nil
		if !stopped {
			if _, err := os.Stat(opts.LockPath); os.IsNotExist(err) {
				// External stop request: the lock file vanished mid-monitor.
				// This is the designed cancellation path, not an error.
				stopped = true
			}
		}
		if stopped {
			// The pending Wait reaps the child, so the handle is not
			// released here.
			ipc.Terminate(nil, pid, opts.Grace)
			result.Stopped = true
			result.ExitErr = <-waitCh
			result.Duration = time.Since(start)
			_ = ipc.CleanupLock(opts.LockPath)
			return result, nil
		}

		time.Sleep(opts.PollInterval)
	}
}
