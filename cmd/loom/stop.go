package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/ipc"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop any running loom agent and clean up its lock files",
	Long: `Reads the build and watch lock files, terminates any agent process
still alive (SIGTERM, then SIGKILL after the grace window), and removes the
lock files. Deleting the lock is also how an external caller asks a running
loop to stop its current agent; this command does both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSetup()
		if err != nil {
			return err
		}
		grace := time.Duration(cfg.Loop.TerminateGraceMS) * time.Millisecond

		stopped := 0
		for _, lockPath := range []string{buildLockPath, watchLockPath} {
			rec := ipc.ReadLock(lockPath)
			if rec == nil {
				continue
			}
			if ipc.Alive(rec.PID) {
				fmt.Printf("Terminating agent pid %d\n", rec.PID)
				ipc.Terminate(nil, rec.PID, grace)
				stopped++
			} else {
				fmt.Printf("Removing stale lock for dead pid %d\n", rec.PID)
			}
			if err := ipc.CleanupLock(lockPath); err != nil {
				return err
			}
		}

		// A leftover signal from an interrupted run would confuse the next
		// loop into crediting the wrong iteration.
		_ = os.Remove(signalPath)

		if stopped == 0 {
			fmt.Println("No running agent found.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
