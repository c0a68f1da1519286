package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/history"
)

var historyLimitFlag int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past build and watch runs",
	Long: `Without arguments, lists recent runs. With a run id, lists that run's
iterations: which task each one worked on, how it ended, and what changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := history.NewSQLiteStore(ctx, historyPath)
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer store.Close()

		if len(args) == 1 {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return printIterations(ctx, store, runID)
		}
		return printRuns(ctx, store)
	},
}

func printRuns(ctx context.Context, store history.Store) error {
	runs, err := store.ListRuns(ctx, historyLimitFlag)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}
	for _, r := range runs {
		outcome := r.Outcome
		if outcome == "" {
			outcome = "running"
		}
		fmt.Printf("%4d  %-5s  %-16s  %2d iterations  %s\n",
			r.ID, r.Mode, outcome, r.Iterations, r.StartedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func printIterations(ctx context.Context, store history.Store, runID int64) error {
	iters, err := store.ListIterations(ctx, runID)
	if err != nil {
		return err
	}
	if len(iters) == 0 {
		fmt.Printf("No iterations recorded for run %d.\n", runID)
		return nil
	}
	for _, it := range iters {
		fmt.Printf("task %3d  %-12s  %6.1fs  +%d/-%d in %d files  %s\n",
			it.TaskID, it.Outcome, it.DurationSeconds,
			it.LinesAdded, it.LinesRemoved, it.FilesChanged, it.TaskTitle)
	}
	return nil
}

func init() {
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(historyCmd)
}
