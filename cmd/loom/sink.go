package main

import (
	"log"
	"sync"
	"time"

	"github.com/loomdev/loom/internal/events"
)

// startConsoleSink subscribes to all bus topics and renders progress as log
// lines. Returns a wait function that blocks until the bus closes and the
// sink drains, so the final events of a run always make it to the terminal.
func startConsoleSink(bus *events.Bus) func() {
	ch := bus.SubscribeAll(0)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for e := range ch {
			switch ev := e.(type) {
			case events.IterationStartedEvent:
				if ev.Blocked > 0 {
					log.Printf("iteration %d (%d tasks blocked)", ev.Iteration, ev.Blocked)
				} else {
					log.Printf("iteration %d", ev.Iteration)
				}
			case events.TaskStartedEvent:
				log.Printf("task %d started: %s", ev.ID, ev.Title)
			case events.TaskCompletedEvent:
				log.Printf("task %d completed in %s (%d files changed)", ev.ID, ev.Duration.Round(time.Second), ev.FilesChanged)
			case events.AgentFailedEvent:
				log.Printf("agent failed on task %d: %v", ev.TaskID, ev.Err)
			case events.WatchScannedEvent:
				if !ev.StopWordFound {
					log.Printf("scanned %d files, no stop word", ev.FilesScanned)
				}
			case events.WatchTriggeredEvent:
				log.Printf("stop word found in %s (%d comments), invoking agent", ev.File, ev.Comments)
			case events.LoopFinishedEvent:
				log.Printf("loop finished: %s after %d iterations", ev.Outcome, ev.Iterations)
			}
		}
	}()

	return wg.Wait
}
