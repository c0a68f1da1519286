package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/agent"
	"github.com/loomdev/loom/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify <action> [detail]",
	Short: "Raise a coordination event from the agent or a hook",
	Long: `Actions:
  complete        record the current task as done and release the lock
  plan-ready      decision point after planning (prompts unless auto mode)
  tasks-ready     decision point after task generation
  watch-complete  acknowledge a processed comment batch
  error           report an agent-side failure; detail carries the message

The agent calls this while its process is still attached to the terminal, so
completion is signalled through the filesystem rather than the exit status.
Exits 0 when the caller should proceed to the next phase, 1 otherwise.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, mode, err := loadSetup()
		if err != nil {
			return err
		}

		// The build lock is the default; a watch-mode agent exports its own
		// lock path so complete releases the right record.
		lockPath := buildLockPath
		if env := os.Getenv(agent.LockPathEnv); env != "" {
			lockPath = env
		}

		h := &notify.Handler{
			Mode:       mode,
			LockPath:   lockPath,
			SignalPath: signalPath,
			In:         os.Stdin,
			Out:        os.Stdout,
		}

		detail := ""
		if len(args) > 1 {
			detail = strings.TrimSpace(args[1])
		}

		decision, err := h.Handle(args[0], detail)
		if err != nil {
			return err
		}
		fmt.Println(decision.Message)
		if !decision.Proceed {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
