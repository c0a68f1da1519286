package config

// AgentConfig defines how the external AI agent is invoked.
type AgentConfig struct {
	Command string   `json:"command"`        // CLI binary name (e.g. "claude")
	Args    []string `json:"args,omitempty"` // Default args appended to every invocation
	Mode    string   `json:"mode,omitempty"` // Permission mode: "auto", "edits", "interactive"
}

// LoopConfig tunes the build loop.
type LoopConfig struct {
	MaxIterations    int `json:"max_iterations,omitempty"`     // Iteration budget
	IterationDelayMS int `json:"iteration_delay_ms,omitempty"` // Delay between iterations
	PollIntervalMS   int `json:"poll_interval_ms,omitempty"`   // Monitor poll interval
	TerminateGraceMS int `json:"terminate_grace_ms,omitempty"` // SIGTERM -> SIGKILL grace window
}

// WatchConfig tunes the watch loop.
type WatchConfig struct {
	Paths      []string `json:"paths,omitempty"`       // Paths handed to the watcher process
	StopWord   string   `json:"stop_word,omitempty"`   // Comment marker that triggers the agent
	DebounceMS int      `json:"debounce_ms,omitempty"` // Quiet period before a trigger check
	Command    []string `json:"command,omitempty"`     // Watcher subprocess command line
	MaxCycles  int      `json:"max_cycles,omitempty"`  // Cap on re-trigger cycles per batch
}

// Config is the top-level loom configuration.
type Config struct {
	Agent AgentConfig `json:"agent"`
	Loop  LoopConfig  `json:"loop"`
	Watch WatchConfig `json:"watch"`
}
