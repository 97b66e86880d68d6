package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
)

func macN(n int) MAC {
	return MAC{0x02, 0x00, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func evtAt(mac MAC, rssi int8, at time.Time) Event {
	return Event{MAC: mac, RSSI: rssi, Channel: 6, Type: EventBeacon, At: at}
}

func TestObserveNewDevice(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	dev, isNew, err := tr.Observe(evtAt(macN(1), -60, now), config.DetectionTTL)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, 1, dev.HitCount)
	assert.Equal(t, int8(-60), dev.RSSIMin)
	assert.Equal(t, int8(-60), dev.RSSIMax)
	assert.Equal(t, int8(-60), dev.RSSILast)
	assert.Equal(t, 1, tr.Entries())
}

func TestObserveRedetectionUpdatesHistory(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	mac := macN(7)

	_, _, err := tr.Observe(evtAt(mac, -60, now), config.DetectionTTL)
	require.NoError(t, err)

	dev, isNew, err := tr.Observe(evtAt(mac, -45, now.Add(time.Second)), config.DetectionTTL)
	require.NoError(t, err)
	assert.False(t, isNew, "re-detection inside the TTL is not new")
	assert.Equal(t, 2, dev.HitCount)
	assert.Equal(t, int8(-60), dev.RSSIMin)
	assert.Equal(t, int8(-45), dev.RSSIMax)
	assert.Equal(t, int8(-45), dev.RSSILast)

	dev, _, err = tr.Observe(evtAt(mac, -75, now.Add(2*time.Second)), config.DetectionTTL)
	require.NoError(t, err)
	assert.Equal(t, 3, dev.HitCount)
	assert.Equal(t, int8(-75), dev.RSSIMin)
	assert.Equal(t, int8(-45), dev.RSSIMax)
	assert.LessOrEqual(t, dev.RSSIMin, dev.RSSILast)
	assert.LessOrEqual(t, dev.RSSILast, dev.RSSIMax)
	assert.Equal(t, 1, tr.Entries(), "same MAC occupies one slot")
}

func TestObserveTTLExpiryCountsAsNew(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	mac := macN(9)

	_, _, err := tr.Observe(evtAt(mac, -60, now), config.DetectionTTL)
	require.NoError(t, err)

	// Seen again past the TTL: reported as new, but the accumulated
	// history survives in the same slot.
	dev, isNew, err := tr.Observe(evtAt(mac, -50, now.Add(config.DetectionTTL+time.Second)), config.DetectionTTL)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, 2, dev.HitCount)
	assert.Equal(t, int8(-60), dev.RSSIMin)
	assert.Equal(t, now, dev.FirstSeen)
	assert.Equal(t, 1, tr.Entries())
}

func TestObserveIntervalAccumulation(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	mac := macN(3)

	tr.Observe(evtAt(mac, -60, now), config.DetectionTTL)
	tr.Observe(evtAt(mac, -60, now.Add(2*time.Second)), config.DetectionTTL)
	dev, _, _ := tr.Observe(evtAt(mac, -60, now.Add(6*time.Second)), config.DetectionTTL)

	avg, ok := dev.AvgInterval()
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, avg)
}

func TestObserveImplausibleIntervalsIgnored(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	mac := macN(4)

	tr.Observe(evtAt(mac, -60, now), config.DetectionTTL)
	// Sub-threshold gap: burst artifact, not a probe cadence.
	tr.Observe(evtAt(mac, -60, now.Add(config.MinProbeInterval/2)), config.DetectionTTL)
	// Beyond the plausible window.
	dev, _, _ := tr.Observe(evtAt(mac, -60, now.Add(time.Minute)), config.DetectionTTL)

	_, ok := dev.AvgInterval()
	assert.False(t, ok)
}

func TestObserveNoSignalLeavesStatsAlone(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	mac := macN(11)

	tr.Observe(Event{MAC: mac, RSSI: -60, Type: EventBLEMACMatch, At: now}, config.DetectionTTL)
	tr.Observe(Event{MAC: mac, RSSI: -62, Type: EventBLEMACMatch, At: now.Add(time.Second)}, config.DetectionTTL)

	// A background name resolution carries no reading; it must not bend
	// the accumulated signal history.
	dev, isNew, err := tr.Observe(Event{
		MAC:      mac,
		Name:     "Penguin-C4",
		Type:     EventBLENameMatch,
		NoSignal: true,
		At:       now.Add(2 * time.Second),
	}, config.DetectionTTL)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, int8(-62), dev.RSSIMin)
	assert.Equal(t, int8(-60), dev.RSSIMax)
	assert.Equal(t, 2, dev.HitCount)
	assert.Equal(t, "stable", dev.SignalTrend())

	stored, ok := tr.Lookup(mac)
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Second), stored.LastSeen, "not a sighting")
}

func TestObserveNoSignalUnknownMACIgnored(t *testing.T) {
	tr := NewTracker()

	_, isNew, err := tr.Observe(Event{
		MAC:      macN(12),
		Name:     "Penguin-C4",
		Type:     EventBLENameMatch,
		NoSignal: true,
		At:       time.Now(),
	}, config.DetectionTTL)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Zero(t, tr.Entries(), "nothing to annotate, nothing inserted")
}

func TestTableFullRejectsInsert(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	// Fill every slot. Probe-limit rejections along the way are fine;
	// keep inserting distinct MACs until the table is saturated.
	var tracked MAC
	haveTracked := false
	for i := 0; tr.Entries() < config.MaxTracked; i++ {
		require.Less(t, i, 4096, "table never filled")
		if _, _, err := tr.Observe(evtAt(macN(i), -60, now), config.DetectionTTL); err == nil && !haveTracked {
			tracked = macN(i)
			haveTracked = true
		}
	}
	require.Equal(t, config.MaxTracked, tr.Entries())

	// A saturated table rejects unknown MACs and stays unchanged.
	_, _, err := tr.Observe(evtAt(MAC{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}, -60, now), config.DetectionTTL)
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Equal(t, config.MaxTracked, tr.Entries())

	// Known MACs still update through a full table.
	dev, isNew, err := tr.Observe(evtAt(tracked, -40, now.Add(time.Second)), config.DetectionTTL)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, int8(-40), dev.RSSILast)
}

func TestLookup(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	tr.Observe(evtAt(macN(5), -62, now), config.DetectionTTL)

	dev, ok := tr.Lookup(macN(5))
	require.True(t, ok)
	assert.Equal(t, macN(5), dev.MAC)

	_, ok = tr.Lookup(macN(6))
	assert.False(t, ok)
}

func TestTrySnapshotSortedByRecency(t *testing.T) {
	tr := NewTracker()
	now := time.Now()

	tr.Observe(evtAt(macN(1), -60, now), config.DetectionTTL)
	tr.Observe(evtAt(macN(2), -60, now.Add(2*time.Second)), config.DetectionTTL)
	tr.Observe(evtAt(macN(3), -60, now.Add(time.Second)), config.DetectionTTL)

	devs, ok := tr.TrySnapshot()
	require.True(t, ok)
	require.Len(t, devs, 3)
	assert.Equal(t, macN(2), devs[0].MAC)
	assert.Equal(t, macN(3), devs[1].MAC)
	assert.Equal(t, macN(1), devs[2].MAC)
}

func TestSignalTrend(t *testing.T) {
	d := Device{RSSIMin: -62, RSSIMax: -58}
	assert.Equal(t, "stable", d.SignalTrend())

	d = Device{RSSIMin: -70, RSSIMax: -55}
	assert.Equal(t, "moderate", d.SignalTrend())

	d = Device{RSSIMin: -85, RSSIMax: -50}
	assert.Equal(t, "moving", d.SignalTrend())
}

func TestHashMACNeverZero(t *testing.T) {
	// 0 is the empty-slot sentinel; every real MAC must map elsewhere.
	assert.NotEqual(t, uint32(0), hashMAC(MAC{}))
	assert.NotEqual(t, uint32(0), hashMAC(macN(1)))
}
