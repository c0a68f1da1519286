package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/config"
	"github.com/loomdev/loom/internal/graph"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .loom directory with a default config and empty task graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := loomPath("config.json")
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.Save(config.DefaultConfig(), configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)

		if _, err := os.Stat(graphPath); os.IsNotExist(err) {
			g := &graph.TaskGraph{
				Title:   "Untitled project",
				Created: time.Now().Format(time.RFC3339),
				Tasks:   []graph.Task{},
			}
			if err := graph.Save(graphPath, g); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", graphPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
