package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
)

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue(4)

	for i := 0; i < 3; i++ {
		ok := q.Push(Event{RSSI: int8(-40 - i)})
		require.True(t, ok)
	}
	assert.Equal(t, 3, q.Len())

	for i := 0; i < 3; i++ {
		evt, ok := q.Pop(time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, int8(-40-i), evt.RSSI)
	}
}

func TestQueueOverflowDropsNewest(t *testing.T) {
	q := NewQueue(config.QueueCapacity)

	// Burst of 20 against capacity 16: exactly 16 accepted, 4 dropped.
	accepted := 0
	for i := 0; i < 20; i++ {
		if q.Push(Event{Channel: uint8(i)}) {
			accepted++
		}
	}

	assert.Equal(t, config.QueueCapacity, accepted)
	assert.Equal(t, uint32(16), q.Pushed())
	assert.Equal(t, uint32(4), q.Dropped())
	assert.Equal(t, config.QueueCapacity, q.Len())

	// The oldest events survived; the newest were rejected.
	evt, ok := q.Pop(time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, uint8(0), evt.Channel)
}

func TestQueuePopTimeout(t *testing.T) {
	q := NewQueue(4)

	start := time.Now()
	_, ok := q.Pop(20 * time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond, "pop must be bounded")
}

func TestQueuePushNeverBlocks(t *testing.T) {
	q := NewQueue(1)
	require.True(t, q.Push(Event{}))

	done := make(chan bool, 1)
	go func() {
		done <- q.Push(Event{})
	}()

	select {
	case ok := <-done:
		assert.False(t, ok, "push against a full queue must reject, not block")
	case <-time.After(time.Second):
		t.Fatal("push blocked on a full queue")
	}
}
