package events

import "time"

// Event is the base interface for all events.
type Event interface {
	EventType() string
}

// Topic constants
const (
	TopicLoop  = "loop"
	TopicTask  = "task"
	TopicWatch = "watch"
)

// Event type constants
const (
	EventTypeIterationStarted = "loop.iteration_started"
	EventTypeLoopFinished     = "loop.finished"
	EventTypeTaskStarted      = "task.started"
	EventTypeTaskCompleted    = "task.completed"
	EventTypeAgentFailed      = "task.agent_failed"
	EventTypeWatchTriggered   = "watch.triggered"
	EventTypeWatchScanned     = "watch.scanned"
)

// IterationStartedEvent is published at the top of each build loop iteration.
type IterationStartedEvent struct {
	Iteration int
	Blocked   int
	Timestamp time.Time
}

func (e IterationStartedEvent) EventType() string { return EventTypeIterationStarted }

// LoopFinishedEvent is published once when the build loop reaches a terminal
// outcome.
type LoopFinishedEvent struct {
	Outcome    string
	Iterations int
	Timestamp  time.Time
}

func (e LoopFinishedEvent) EventType() string { return EventTypeLoopFinished }

// TaskStartedEvent is published when the agent is spawned for a task.
type TaskStartedEvent struct {
	ID        int
	Title     string
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }

// TaskCompletedEvent is published when a task's completion signal is
// consumed.
type TaskCompletedEvent struct {
	ID           int
	Duration     time.Duration
	FilesChanged int
	Timestamp    time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }

// AgentFailedEvent is published when the agent process exits non-zero.
type AgentFailedEvent struct {
	TaskID    int
	Err       error
	Timestamp time.Time
}

func (e AgentFailedEvent) EventType() string { return EventTypeAgentFailed }

// WatchTriggeredEvent is published when a stop word is found in a comment
// batch and the agent is about to be invoked.
type WatchTriggeredEvent struct {
	File      string
	Comments  int
	Timestamp time.Time
}

func (e WatchTriggeredEvent) EventType() string { return EventTypeWatchTriggered }

// WatchScannedEvent is published after each comment scan, whether or not it
// found a stop word.
type WatchScannedEvent struct {
	FilesScanned  int
	StopWordFound bool
	Timestamp     time.Time
}

func (e WatchScannedEvent) EventType() string { return EventTypeWatchScanned }
