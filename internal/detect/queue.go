package detect

import (
	"sync/atomic"
	"time"
)

// Queue is the bounded FIFO decoupling radio-latency-sensitive producers
// from the processing task. Push never blocks: when the queue is full the
// incoming event is rejected and counted (drop-newest). Pop waits at most
// the given timeout so the consumer can run periodic housekeeping while
// idle.
type Queue struct {
	ch      chan Event
	pushed  atomic.Uint32
	dropped atomic.Uint32
}

// NewQueue creates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan Event, capacity)}
}

// Push attempts a non-blocking enqueue. Returns false if the queue was
// full and the event was dropped.
func (q *Queue) Push(evt Event) bool {
	select {
	case q.ch <- evt:
		q.pushed.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Pop dequeues the next event, waiting at most timeout. The second return
// is false if the wait expired with no event.
func (q *Queue) Pop(timeout time.Duration) (Event, bool) {
	select {
	case evt := <-q.ch:
		return evt, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.ch) }

// Pushed returns the lifetime count of accepted events.
func (q *Queue) Pushed() uint32 { return q.pushed.Load() }

// Dropped returns the lifetime count of events rejected on overflow.
func (q *Queue) Dropped() uint32 { return q.dropped.Load() }
