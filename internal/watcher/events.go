package watcher

import (
	"encoding/json"
	"strings"
)

// EventType classifies a line on the watcher subprocess's stdout.
type EventType string

const (
	EventReady  EventType = "ready"
	EventChange EventType = "change"
	EventError  EventType = "error"
)

// WatchEvent is one normalized line-delimited JSON event from the watcher
// subprocess.
type WatchEvent struct {
	Type    EventType
	Path    string
	Message string
}

// wireEvent is the raw shape accepted off the wire. Two dialects are
// understood: the normalized {"type","path","message"} form, and watchexec's
// --emit-events-to=json-stdio form where paths arrive as tags.
type wireEvent struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Tags    []struct {
		Kind     string `json:"kind"`
		Absolute string `json:"absolute"`
	} `json:"tags"`
}

// DecodeEvent parses one stdout line into a WatchEvent. Returns false for
// blank or unrecognized lines; the watcher interleaves diagnostics we don't
// care about.
func DecodeEvent(line string) (WatchEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		return WatchEvent{}, false
	}

	var raw wireEvent
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return WatchEvent{}, false
	}

	switch raw.Type {
	case "ready":
		return WatchEvent{Type: EventReady, Message: raw.Message}, true
	case "change":
		if raw.Path == "" {
			return WatchEvent{}, false
		}
		return WatchEvent{Type: EventChange, Path: raw.Path}, true
	case "error":
		return WatchEvent{Type: EventError, Path: raw.Path, Message: raw.Message}, true
	}

	// watchexec dialect: an event is a change for each path tag.
	for _, tag := range raw.Tags {
		if tag.Kind == "path" && tag.Absolute != "" {
			return WatchEvent{Type: EventChange, Path: tag.Absolute}, true
		}
	}

	return WatchEvent{}, false
}
