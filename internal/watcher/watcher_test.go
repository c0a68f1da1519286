package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loomdev/loom/internal/agent"
	"github.com/loomdev/loom/internal/events"
)

// stubScanner returns canned results in sequence, repeating the last one.
type stubScanner struct {
	results []*ScanResult
	calls   int
}

func (s *stubScanner) Scan(paths []string, stopWord string) (*ScanResult, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i], nil
}

func found(file string) *ScanResult {
	return &ScanResult{
		Comments: []Comment{{File: file, Line: 1, Text: "AI! do it"}},
		Metadata: ScanMetadata{StopWordFound: true, StopWordFile: file, FilesScanned: 1},
	}
}

func clean() *ScanResult {
	return &ScanResult{Comments: []Comment{}, Metadata: ScanMetadata{FilesScanned: 1}}
}

func newTestWatcher(t *testing.T, scanner Scanner, maxCycles int) (*Watcher, *events.Bus) {
	t.Helper()
	dir := t.TempDir()
	bus := events.NewBus()
	t.Cleanup(bus.Close)

	w := New(Config{
		Paths:        []string{dir},
		StopWord:     "AI!",
		MaxCycles:    maxCycles,
		Dir:          dir,
		LockPath:     filepath.Join(dir, "watch.lock"),
		CommentsPath: filepath.Join(dir, "comments.json"),

		AgentCommand: "/bin/sh",
		AgentArgs:    []string{"-c", "exit 0", "fake-agent"},
		Mode:         agent.ModeAuto,

		PollInterval: 10 * time.Millisecond,
		Grace:        50 * time.Millisecond,

		Bus: bus,
	}, scanner)
	return w, bus
}

func TestProcessBatch_TriggersAgentThenSettles(t *testing.T) {
	scanner := &stubScanner{results: []*ScanResult{found("a.go"), clean()}}
	w, bus := newTestWatcher(t, scanner, 5)
	triggered := bus.Subscribe(events.TopicWatch, 16)

	w.processBatch(context.Background(), w.cfg.Paths)

	// First scan finds the stop word, the agent runs, the re-scan is clean.
	if scanner.calls != 2 {
		t.Errorf("expected 2 scans (hit, then clean re-scan), got %d", scanner.calls)
	}

	// The comment batch payload was written for the agent.
	data, err := os.ReadFile(w.cfg.CommentsPath)
	if err != nil {
		t.Fatalf("comment batch not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("comment batch empty")
	}

	var sawTrigger bool
	for done := false; !done; {
		select {
		case e := <-triggered:
			if _, ok := e.(events.WatchTriggeredEvent); ok {
				sawTrigger = true
			}
		default:
			done = true
		}
	}
	if !sawTrigger {
		t.Error("no WatchTriggeredEvent published")
	}
}

func TestProcessBatch_NoStopWordNoAgent(t *testing.T) {
	scanner := &stubScanner{results: []*ScanResult{clean()}}
	w, _ := newTestWatcher(t, scanner, 5)

	w.processBatch(context.Background(), w.cfg.Paths)

	if scanner.calls != 1 {
		t.Errorf("clean scan should not re-scan, got %d calls", scanner.calls)
	}
	if _, err := os.Stat(w.cfg.CommentsPath); !os.IsNotExist(err) {
		t.Error("no agent run should mean no comment batch file")
	}
}

// TestProcessBatch_CycleCap keeps reporting a stop word; the re-trigger chain
// must stop at the configured cycle cap instead of looping forever.
func TestProcessBatch_CycleCap(t *testing.T) {
	scanner := &stubScanner{results: []*ScanResult{found("a.go")}}
	w, _ := newTestWatcher(t, scanner, 3)

	done := make(chan struct{})
	go func() {
		w.processBatch(context.Background(), w.cfg.Paths)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("processBatch did not terminate under a persistent stop word")
	}

	if scanner.calls != 3 {
		t.Errorf("expected exactly %d scans at the cap, got %d", 3, scanner.calls)
	}
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	scanner := &stubScanner{results: []*ScanResult{found("a.go")}}
	w, _ := newTestWatcher(t, scanner, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.processBatch(ctx, w.cfg.Paths)

	if scanner.calls != 0 {
		t.Errorf("cancelled batch should not scan, got %d calls", scanner.calls)
	}
}

// TestRun_WatcherDeathIsFatal feeds Run a watcher command that exits
// immediately; Run must return an error rather than idle without a watcher.
func TestRun_WatcherDeathIsFatal(t *testing.T) {
	scanner := &stubScanner{results: []*ScanResult{clean()}}
	w, _ := newTestWatcher(t, scanner, 5)
	w.cfg.Command = []string{"/bin/sh", "-c", "exit 0"}

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(context.Background()) }()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected error when the watcher process dies")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not notice watcher death")
	}
}

func TestRun_CleanShutdownOnCancel(t *testing.T) {
	scanner := &stubScanner{results: []*ScanResult{clean()}}
	w, _ := newTestWatcher(t, scanner, 5)
	// A watcher that stays alive until terminated.
	w.cfg.Command = []string{"/bin/sh", "-c", "sleep 30"}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("cancel should shut down cleanly, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not exit after cancellation")
	}
}
