package hopper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
)

type fakeRadio struct {
	channels []uint8
}

func (r *fakeRadio) SetChannel(ch uint8) error {
	r.channels = append(r.channels, ch)
	return nil
}

func TestNewStartsOnChannelOne(t *testing.T) {
	h := New(&fakeRadio{}, nil, nil)
	assert.Equal(t, uint8(1), h.Current())
}

func TestDwellTiers(t *testing.T) {
	h := New(&fakeRadio{}, nil, nil)

	// Quiet channel: base dwell.
	assert.Equal(t, config.DwellBase, h.dwellFor(3))

	// At the active threshold the dwell steps up.
	for i := 0; i < config.ActiveThreshold; i++ {
		h.RecordFrame(3)
	}
	assert.Equal(t, config.DwellActive, h.dwellFor(3))

	for i := config.ActiveThreshold; i < config.HighThreshold; i++ {
		h.RecordFrame(3)
	}
	assert.Equal(t, config.DwellHigh, h.dwellFor(3))
}

func TestDwellDetectionBonusCapped(t *testing.T) {
	h := New(&fakeRadio{}, nil, nil)

	h.NoteDetection(7)
	assert.Equal(t, config.DwellBase+config.DetectionBonus, h.dwellFor(7))

	// Enough detections to blow past the cap.
	for i := 0; i < 10; i++ {
		h.NoteDetection(7)
	}
	assert.Equal(t, config.MaxDwell, h.dwellFor(7))
}

func TestTickHopsAfterDwell(t *testing.T) {
	radio := &fakeRadio{}
	var notified []uint8
	h := New(radio, nil, func(ch uint8) { notified = append(notified, ch) })

	base := time.Now()
	h.lastHop = base

	// Dwell not yet elapsed: stay put.
	h.tick(base.Add(config.DwellBase - time.Millisecond))
	assert.Equal(t, uint8(1), h.Current())
	assert.Empty(t, radio.channels)

	h.tick(base.Add(config.DwellBase))
	assert.Equal(t, uint8(2), h.Current())
	assert.Equal(t, []uint8{2}, radio.channels)
	assert.Equal(t, []uint8{2}, notified)
}

func TestTickResetsOnlyDepartingChannel(t *testing.T) {
	h := New(&fakeRadio{}, nil, nil)

	h.RecordFrame(1)
	h.RecordFrame(1)
	h.RecordFrame(2)
	h.RecordFrame(2)
	h.RecordFrame(2)

	base := time.Now()
	h.lastHop = base
	h.tick(base.Add(config.DwellBase))

	require.Equal(t, uint8(2), h.Current())
	assert.Zero(t, h.Activity(1), "departing channel's dwell activity is spent")
	assert.Equal(t, uint32(3), h.Activity(2), "arriving channel keeps its counts")
}

func TestTickWrapsToChannelOne(t *testing.T) {
	h := New(&fakeRadio{}, nil, nil)
	h.current.Store(config.MaxChannel)

	base := time.Now()
	h.lastHop = base
	h.tick(base.Add(config.DwellBase))

	assert.Equal(t, uint8(1), h.Current())
}

func TestStickyBlocksHop(t *testing.T) {
	radio := &fakeRadio{}
	h := New(radio, nil, nil)

	h.NoteDetection(1)
	require.True(t, h.Sticky())

	base := time.Now()
	h.lastHop = base.Add(-time.Minute) // dwell long since elapsed

	h.tick(base.Add(time.Second))
	assert.Equal(t, uint8(1), h.Current(), "sticky window pins the channel")
	assert.Empty(t, radio.channels)

	// Past the sticky window the hop proceeds.
	h.tick(base.Add(config.StickyDuration + time.Second))
	assert.Equal(t, uint8(2), h.Current())
}

func TestNoteDetectionCountsLifetime(t *testing.T) {
	h := New(&fakeRadio{}, nil, nil)

	h.NoteDetection(6)
	h.NoteDetection(6)
	assert.Equal(t, uint32(2), h.Detections(6))

	base := time.Now()
	h.current.Store(6)
	h.lastHop = base.Add(-time.Minute)
	h.tick(base.Add(config.StickyDuration + time.Second))

	assert.Equal(t, uint32(2), h.Detections(6), "detection counts survive hops")
}

func TestRecordFrameIgnoresInvalidChannels(t *testing.T) {
	h := New(&fakeRadio{}, nil, nil)

	h.RecordFrame(0)
	h.RecordFrame(config.MaxChannel + 1)

	for ch := uint8(1); ch <= config.MaxChannel; ch++ {
		assert.Zero(t, h.Activity(ch))
	}
}
