package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/events"
	"github.com/loomdev/loom/internal/history"
	"github.com/loomdev/loom/internal/ipc"
	"github.com/loomdev/loom/internal/runner"
)

var maxIterationsFlag int

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the build loop against the task graph",
	Long: `Repeatedly selects the highest-priority unblocked task from ` + graphPath + `,
spawns the agent on it, and folds the completion signal back into the graph.
Stops when every task is complete, the graph deadlocks, the iteration budget
runs out, or the run is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, mode, err := loadSetup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus := events.NewBus()
		wait := startConsoleSink(bus)

		// History is best-effort: a broken database shouldn't stop a build.
		var store history.Store
		if s, err := history.NewSQLiteStore(ctx, historyPath); err != nil {
			log.Printf("WARNING: run history unavailable: %v", err)
		} else {
			store = s
			defer s.Close()
		}

		maxIterations := cfg.Loop.MaxIterations
		if maxIterationsFlag > 0 {
			maxIterations = maxIterationsFlag
		}

		r := runner.New(runner.Config{
			GraphPath:  graphPath,
			LockPath:   buildLockPath,
			SignalPath: signalPath,
			TaskPath:   taskPath,
			Dir:        ".",

			AgentCommand: cfg.Agent.Command,
			AgentArgs:    cfg.Agent.Args,
			Mode:         mode,

			MaxIterations:  maxIterations,
			IterationDelay: time.Duration(cfg.Loop.IterationDelayMS) * time.Millisecond,
			PollInterval:   time.Duration(cfg.Loop.PollIntervalMS) * time.Millisecond,
			Grace:          time.Duration(cfg.Loop.TerminateGraceMS) * time.Millisecond,

			Bus:     bus,
			History: store,
		})

		// The lock belongs to whichever agent run is active; if we die
		// mid-run the monitor already cleaned it, but an interrupt between
		// iterations can leave one behind.
		defer func() {
			if err := ipc.CleanupLock(buildLockPath); err != nil {
				log.Printf("WARNING: %v", err)
			}
		}()

		result, runErr := r.Run(ctx)
		bus.Close()
		wait()

		fmt.Printf("\nBuild %s: %d iterations, %d tasks completed",
			result.Outcome, result.Iterations, result.Completed)
		if result.Outcome == runner.OutcomeDeadlocked {
			fmt.Printf(", %d tasks blocked", result.Blocked)
		}
		fmt.Println()

		if runErr != nil {
			return runErr
		}
		switch result.Outcome {
		case runner.OutcomeDeadlocked, runner.OutcomeBudgetExhausted:
			return fmt.Errorf("build ended %s", result.Outcome)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().IntVar(&maxIterationsFlag, "max-iterations", 0, "iteration budget override")
	rootCmd.AddCommand(buildCmd)
}
