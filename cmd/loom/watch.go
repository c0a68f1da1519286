package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomdev/loom/internal/events"
	"github.com/loomdev/loom/internal/ipc"
	"github.com/loomdev/loom/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch files for stop-word comments and dispatch them to the agent",
	Long: `Supervises a file-watching subprocess, batches its change events, and
scans each quiet batch for comments carrying the stop word. Matching batches
are handed to the agent through the same lock-file protocol the build loop
uses. Runs until interrupted; the watcher process dying is fatal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, mode, err := loadSetup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus := events.NewBus()
		wait := startConsoleSink(bus)

		w := watcher.New(watcher.Config{
			Command:      cfg.Watch.Command,
			Paths:        cfg.Watch.Paths,
			StopWord:     cfg.Watch.StopWord,
			Debounce:     time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
			MaxCycles:    cfg.Watch.MaxCycles,
			Dir:          ".",
			LockPath:     watchLockPath,
			CommentsPath: commentsPath,

			AgentCommand: cfg.Agent.Command,
			AgentArgs:    cfg.Agent.Args,
			Mode:         mode,

			PollInterval: time.Duration(cfg.Loop.PollIntervalMS) * time.Millisecond,
			Grace:        time.Duration(cfg.Loop.TerminateGraceMS) * time.Millisecond,

			Bus: bus,
		}, nil)

		defer func() {
			if err := ipc.CleanupLock(watchLockPath); err != nil {
				log.Printf("WARNING: %v", err)
			}
		}()

		runErr := w.Run(ctx)
		bus.Close()
		wait()
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
