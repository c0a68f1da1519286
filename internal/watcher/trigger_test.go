package watcher

import (
	"reflect"
	"testing"
	"time"
)

func TestAccumulator(t *testing.T) {
	acc := newAccumulator()

	if acc.pending() {
		t.Error("fresh accumulator should have nothing pending")
	}

	acc.add("b.go")
	acc.add("a.go")
	acc.add("b.go") // duplicates collapse

	if !acc.pending() {
		t.Error("expected pending after adds")
	}

	got := acc.drain()
	if !reflect.DeepEqual(got, []string{"a.go", "b.go"}) {
		t.Errorf("drain = %v, want sorted deduplicated paths", got)
	}

	// Drain clears unconditionally; the next batch starts empty.
	if acc.pending() {
		t.Error("accumulator still pending after drain")
	}
	if again := acc.drain(); len(again) != 0 {
		t.Errorf("second drain returned %v, want empty", again)
	}
}

func TestAccumulatorQuietFor(t *testing.T) {
	acc := newAccumulator()
	acc.add("a.go")

	if acc.quietFor(time.Hour) {
		t.Error("just-touched accumulator cannot be quiet for an hour")
	}

	acc.lastChange = time.Now().Add(-2 * time.Second)
	if !acc.quietFor(time.Second) {
		t.Error("expected quiet after the window passed")
	}

	// A new change resets the quiet window.
	acc.add("b.go")
	if acc.quietFor(time.Second) {
		t.Error("new change must reset the quiet window")
	}
}
