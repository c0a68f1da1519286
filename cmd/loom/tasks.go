package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/graph"
	"github.com/loomdev/loom/internal/ipc"
	"github.com/loomdev/loom/internal/scheduler"
)

var staleFlag bool

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks in the graph",
	Long: `Lists every task with its status and dependencies. With --stale, lists
only tasks stuck in_progress with no live agent behind them (the usual
aftermath of a killed run); loom never resets those automatically, so this is
how an operator finds them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := graph.Load(graphPath)
		if err != nil {
			return err
		}

		if staleFlag {
			return listStale(g)
		}

		fmt.Printf("%s (%d tasks)\n\n", g.Title, len(g.Tasks))
		for i := range g.Tasks {
			t := &g.Tasks[i]
			marker := " "
			switch t.Status {
			case graph.StatusCompleted:
				marker = "x"
			case graph.StatusInProgress:
				marker = ">"
			default:
				if !scheduler.DependenciesSatisfied(t, scheduler.CompletedIDs(g.Tasks)) {
					marker = "!"
				}
			}
			fmt.Printf("  [%s] %3d  %s", marker, t.ID, t.Title)
			if len(t.Dependencies) > 0 {
				fmt.Printf("  (after %v)", t.Dependencies)
			}
			fmt.Println()
		}
		return nil
	},
}

// listStale prints in_progress tasks with no live agent holding the lock.
func listStale(g *graph.TaskGraph) error {
	lock := ipc.ReadLock(buildLockPath)
	live := 0
	if lock != nil && ipc.Alive(lock.PID) {
		live = lock.TaskID
	}

	found := false
	for i := range g.Tasks {
		t := &g.Tasks[i]
		if t.Status != graph.StatusInProgress || t.ID == live {
			continue
		}
		found = true
		fmt.Printf("task %d (%s) is in_progress with no live agent\n", t.ID, t.Title)
	}
	if !found {
		fmt.Println("No stale tasks.")
	}
	return nil
}

func init() {
	tasksCmd.Flags().BoolVar(&staleFlag, "stale", false, "list in_progress tasks with no live agent")
	rootCmd.AddCommand(tasksCmd)
}
