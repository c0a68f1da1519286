package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/graph"
	"github.com/loomdev/loom/internal/scheduler"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the task graph for duplicate ids, broken references, and cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := graph.Load(graphPath)
		if err != nil {
			return err
		}

		if err := scheduler.ValidateIDs(g.Tasks); err != nil {
			return err
		}
		order, err := scheduler.Order(g.Tasks)
		if err != nil {
			return err
		}
		if circular := scheduler.DetectCircularDependencies(g.Tasks); len(circular) > 0 {
			return fmt.Errorf("circular dependencies involving tasks %v", circular)
		}

		fmt.Printf("Task graph OK: %d tasks, execution order %v\n", len(g.Tasks), order)
		if blocked := scheduler.CountBlockedTasks(g.Tasks); blocked > 0 {
			fmt.Printf("%d tasks currently blocked on incomplete dependencies\n", blocked)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
