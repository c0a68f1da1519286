package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live status of any running loom loops",
	RunE: func(cmd *cobra.Command, args []string) error {
		model := tui.New(graphPath, buildLockPath, watchLockPath)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("running status display: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
