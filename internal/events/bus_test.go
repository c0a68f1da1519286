package events

import (
	"testing"
	"time"
)

func TestBusTopicSubscription(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	loopCh := bus.Subscribe(TopicLoop, 8)
	taskCh := bus.Subscribe(TopicTask, 8)

	bus.Publish(TopicLoop, IterationStartedEvent{Iteration: 1, Timestamp: time.Now()})
	bus.Publish(TopicTask, TaskStartedEvent{ID: 2, Timestamp: time.Now()})

	select {
	case e := <-loopCh:
		if e.EventType() != EventTypeIterationStarted {
			t.Errorf("wrong event on loop topic: %s", e.EventType())
		}
	case <-time.After(time.Second):
		t.Fatal("loop subscriber never received its event")
	}

	select {
	case e := <-taskCh:
		if e.EventType() != EventTypeTaskStarted {
			t.Errorf("wrong event on task topic: %s", e.EventType())
		}
	case <-time.After(time.Second):
		t.Fatal("task subscriber never received its event")
	}

	// Topic subscribers don't see other topics.
	select {
	case e := <-loopCh:
		t.Errorf("loop subscriber received foreign event %s", e.EventType())
	default:
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	all := bus.SubscribeAll(8)
	bus.Publish(TopicLoop, LoopFinishedEvent{Outcome: "complete"})
	bus.Publish(TopicWatch, WatchTriggeredEvent{File: "a.go"})

	got := 0
	timeout := time.After(time.Second)
	for got < 2 {
		select {
		case <-all:
			got++
		case <-timeout:
			t.Fatalf("all-topics subscriber received %d of 2 events", got)
		}
	}
}

func TestBusNonBlockingPublish(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	// One-slot buffer, never drained. The second publish must not block.
	bus.Subscribe(TopicLoop, 1)

	done := make(chan struct{})
	go func() {
		bus.Publish(TopicLoop, IterationStartedEvent{Iteration: 1})
		bus.Publish(TopicLoop, IterationStartedEvent{Iteration: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(TopicLoop, 1)

	bus.Close()
	bus.Close() // idempotent

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}

	// Publishing and subscribing after close are no-ops.
	bus.Publish(TopicLoop, IterationStartedEvent{})
	late := bus.Subscribe(TopicLoop, 1)
	if _, ok := <-late; ok {
		t.Error("late subscription should come back closed")
	}
}
