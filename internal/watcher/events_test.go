package watcher

import "testing"

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		expectOK   bool
		expectType EventType
		expectPath string
	}{
		{
			name:       "normalized ready",
			line:       `{"type":"ready"}`,
			expectOK:   true,
			expectType: EventReady,
		},
		{
			name:       "normalized change",
			line:       `{"type":"change","path":"src/main.go"}`,
			expectOK:   true,
			expectType: EventChange,
			expectPath: "src/main.go",
		},
		{
			name:     "change without path is dropped",
			line:     `{"type":"change"}`,
			expectOK: false,
		},
		{
			name:       "normalized error",
			line:       `{"type":"error","path":"x.go","message":"permission denied"}`,
			expectOK:   true,
			expectType: EventError,
			expectPath: "x.go",
		},
		{
			name:       "watchexec path tags",
			line:       `{"tags":[{"kind":"source","source":"filesystem"},{"kind":"path","absolute":"/repo/lib.go","filetype":"file"}]}`,
			expectOK:   true,
			expectType: EventChange,
			expectPath: "/repo/lib.go",
		},
		{
			name:     "blank line",
			line:     "   ",
			expectOK: false,
		},
		{
			name:     "non-JSON diagnostic",
			line:     "[Running: scan]",
			expectOK: false,
		},
		{
			name:     "malformed JSON",
			line:     `{"type":"change",`,
			expectOK: false,
		},
		{
			name:     "unknown type without tags",
			line:     `{"type":"heartbeat"}`,
			expectOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := DecodeEvent(tt.line)
			if ok != tt.expectOK {
				t.Fatalf("DecodeEvent ok = %v, want %v", ok, tt.expectOK)
			}
			if !ok {
				return
			}
			if ev.Type != tt.expectType {
				t.Errorf("type = %s, want %s", ev.Type, tt.expectType)
			}
			if ev.Path != tt.expectPath {
				t.Errorf("path = %q, want %q", ev.Path, tt.expectPath)
			}
		})
	}
}
