package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/agent"
	"github.com/loomdev/loom/internal/config"
)

// loomDir is the per-project state directory. Every coordination file lives
// under it: the task graph, lock files, completion signal, task payload, and
// run history.
const loomDir = ".loom"

func loomPath(name string) string {
	return filepath.Join(loomDir, name)
}

var (
	graphPath     = loomPath("tasks.json")
	buildLockPath = loomPath("build.lock")
	watchLockPath = loomPath("watch.lock")
	signalPath    = loomPath("signal.json")
	taskPath      = loomPath("current-task.json")
	commentsPath  = loomPath("comments.json")
	historyPath   = loomPath("history.db")
)

// modeFlag overrides the configured permission mode when non-empty.
var modeFlag string

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Autonomous build-loop coordinator for AI coding agents",
	Long: `loom drives an external AI coding agent through a task graph:
it selects the next unblocked task, spawns the agent on it, supervises the
run through a lock file, and folds the completion signal back into the graph.
A watch mode scans changed files for stop-word comments and hands matching
batches to the agent the same way.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "permission mode override (auto, edits, interactive)")
}

// loadSetup loads the merged configuration and resolves the effective
// permission mode, applying the --mode flag override.
func loadSetup() (*config.Config, agent.Mode, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, agent.ModeInteractive, err
	}

	modeStr := cfg.Agent.Mode
	if modeFlag != "" {
		modeStr = modeFlag
	}
	mode, err := agent.ParseMode(modeStr)
	if err != nil {
		return nil, agent.ModeInteractive, fmt.Errorf("resolving permission mode: %w", err)
	}
	return cfg, mode, nil
}
