// Package watcher runs the watch loop: supervise a third-party file-watching
// subprocess, batch its change events, scan the batch for stop-word
// comments, and hand matching batches to the agent through the same
// lock-file supervision protocol the build loop uses.
package watcher

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loomdev/loom/internal/agent"
	"github.com/loomdev/loom/internal/events"
	"github.com/loomdev/loom/internal/ipc"
)

// Config configures the watch loop.
type Config struct {
	Command      []string // Watcher subprocess command line; paths are appended
	Paths        []string // Watch roots
	StopWord     string   // Comment marker that triggers the agent
	Debounce     time.Duration
	MaxCycles    int    // Cap on agent re-trigger cycles per batch
	Dir          string // Target project directory
	LockPath     string // Lock file for agent runs in watch mode
	CommentsPath string // Where the comment batch payload is written

	AgentCommand string
	AgentArgs    []string
	Mode         agent.Mode

	PollInterval time.Duration
	Grace        time.Duration

	Bus *events.Bus
}

// Watcher executes the watch loop.
type Watcher struct {
	cfg     Config
	scanner Scanner
}

// New creates a watcher. A nil scanner gets the built-in RegexScanner.
func New(cfg Config, scanner Scanner) *Watcher {
	if scanner == nil {
		scanner = &RegexScanner{}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 1500 * time.Millisecond
	}
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = 5
	}
	return &Watcher{cfg: cfg, scanner: scanner}
}

// Run starts the watcher subprocess and processes its events until the
// context is cancelled or the watcher dies. Watcher death is fatal: without
// it there is no file-watching capability left. Before watching begins, all
// configured paths are scanned once so stop words already sitting in files
// don't wait for the next edit.
func (w *Watcher) Run(ctx context.Context) error {
	// Cold-start catch-up scan.
	w.processBatch(ctx, w.cfg.Paths)
	if ctx.Err() != nil {
		return nil
	}

	if len(w.cfg.Command) == 0 {
		return fmt.Errorf("watcher command not configured")
	}

	args := append(append([]string{}, w.cfg.Command[1:]...), w.cfg.Paths...)
	cmd := exec.Command(w.cfg.Command[0], args...)
	cmd.Dir = w.cfg.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating watcher stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating watcher stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting watcher %q: %w", w.cfg.Command[0], err)
	}
	pid := cmd.Process.Pid

	// Both pipes are drained concurrently so the watcher can never block on
	// a full pipe buffer.
	eventCh := make(chan WatchEvent, 256)
	var g errgroup.Group
	g.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if ev, ok := DecodeEvent(scanner.Text()); ok {
				eventCh <- ev
			}
		}
		return scanner.Err()
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("watcher: %s", scanner.Text())
		}
		return scanner.Err()
	})

	watcherDone := make(chan error, 1)
	go func() {
		pipeErr := g.Wait()
		close(eventCh)
		waitErr := cmd.Wait()
		if waitErr == nil {
			waitErr = pipeErr
		}
		watcherDone <- waitErr
	}()

	acc := newAccumulator()
	ticker := time.NewTicker(w.checkInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Mirror the agent shutdown: graceful, then forceful, then reap.
			// Keep draining events so the pipe readers can reach EOF.
			ipc.Terminate(nil, pid, w.cfg.Grace)
			for {
				select {
				case _, ok := <-eventCh:
					if !ok {
						eventCh = nil
					}
				case <-watcherDone:
					return nil
				}
			}

		case ev, ok := <-eventCh:
			if !ok {
				eventCh = nil // Exit surfaces via watcherDone
				continue
			}
			switch ev.Type {
			case EventReady:
				log.Printf("watcher ready (watching %d paths)", len(w.cfg.Paths))
			case EventChange:
				acc.add(ev.Path)
			case EventError:
				// A per-file error is logged and watching continues; only
				// watcher exit is fatal.
				log.Printf("watcher error for %s: %s", ev.Path, ev.Message)
			}

		case err := <-watcherDone:
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				return fmt.Errorf("watcher process died: %w", err)
			}
			return fmt.Errorf("watcher process exited unexpectedly")

		case <-ticker.C:
			if acc.pending() && acc.quietFor(w.cfg.Debounce) {
				w.processBatch(ctx, acc.drain())
			}
		}
	}
}

// checkInterval is how often the trigger condition is polled; a fraction of
// the debounce window, floored at 100ms.
func (w *Watcher) checkInterval() time.Duration {
	interval := w.cfg.Debounce / 3
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return interval
}

// processBatch scans a batch of paths and, if the stop word shows up in a
// comment, runs the agent on the batch. After each agent run all configured
// watch paths are re-scanned once: the agent's own edits may introduce new
// stop words. The chain is a plain loop with a cycle cap, so a pathological
// comment pattern can't recurse forever.
func (w *Watcher) processBatch(ctx context.Context, paths []string) {
	for cycle := 0; cycle < w.cfg.MaxCycles; cycle++ {
		if ctx.Err() != nil {
			return
		}

		result, err := w.scanner.Scan(paths, w.cfg.StopWord)
		if err != nil {
			log.Printf("ERROR: comment scan failed: %v", err)
			return
		}

		w.publish(events.WatchScannedEvent{
			FilesScanned:  result.Metadata.FilesScanned,
			StopWordFound: result.Metadata.StopWordFound,
			Timestamp:     time.Now(),
		})

		if !result.Metadata.StopWordFound {
			return
		}

		w.publish(events.WatchTriggeredEvent{
			File:      result.Metadata.StopWordFile,
			Comments:  len(result.Comments),
			Timestamp: time.Now(),
		})

		if err := w.runAgent(ctx, result); err != nil {
			log.Printf("ERROR: agent run for comment batch: %v", err)
			return
		}

		// Re-scan everything for stop words the agent just introduced.
		paths = w.cfg.Paths
	}

	log.Printf("WARNING: re-trigger cycle cap (%d) reached, returning to watch", w.cfg.MaxCycles)
}

// runAgent writes the comment batch payload and supervises one agent
// invocation against it.
func (w *Watcher) runAgent(ctx context.Context, result *ScanResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling comment batch: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.cfg.CommentsPath), 0755); err != nil {
		return fmt.Errorf("creating comments directory: %w", err)
	}
	if err := os.WriteFile(w.cfg.CommentsPath, data, 0644); err != nil {
		return fmt.Errorf("writing comment batch: %w", err)
	}

	inv := agent.Invocation{
		Command: w.cfg.AgentCommand,
		Args:    w.cfg.AgentArgs,
		Mode:    w.cfg.Mode,
		Prompt: fmt.Sprintf(
			"Address the %d annotated comments listed in %s, then remove the markers from the source.",
			len(result.Comments), w.cfg.CommentsPath),
		Dir: w.cfg.Dir,
	}
	opts := agent.SpawnOptions{
		LockPath: w.cfg.LockPath,
		LockContext: ipc.LockRecord{
			Mode:         "watch",
			CommentsPath: w.cfg.CommentsPath,
		},
		PollInterval: w.cfg.PollInterval,
		Grace:        w.cfg.Grace,
	}

	res, err := agent.SpawnAndMonitor(ctx, inv, opts)
	if err != nil {
		return err
	}
	if res.ExitErr != nil {
		log.Printf("agent exited with error on comment batch: %v", res.ExitErr)
	}
	return nil
}

// publish sends an event when a bus is configured.
func (w *Watcher) publish(e events.Event) {
	if w.cfg.Bus != nil {
		w.cfg.Bus.Publish(events.TopicWatch, e)
	}
}
