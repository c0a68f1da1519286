package config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Command: "claude",
			Mode:    "interactive",
		},
		Loop: LoopConfig{
			MaxIterations:    25,
			IterationDelayMS: 2000,
			PollIntervalMS:   100,
			TerminateGraceMS: 500,
		},
		Watch: WatchConfig{
			Paths:      []string{"."},
			StopWord:   "AI!",
			DebounceMS: 1500,
			Command:    []string{"watchexec", "--emit-events-to=json-stdio"},
			MaxCycles:  5,
		},
	}
}
