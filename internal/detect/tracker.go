package detect

import (
	"sort"
	"sync"
	"time"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
)

// Device is one entry in the tracked device table: a MAC address with its
// accumulated detection history. Entries are created on first match and
// updated in place forever after; the table never evicts.
type Device struct {
	Hash uint32 // FNV-1a of the raw MAC bytes; 0 marks an empty slot
	MAC  MAC

	RSSIMin  int8
	RSSIMax  int8
	RSSILast int8
	rssiSum  int
	HitCount int

	LastChannel uint8
	LastType    EventType
	FirstSeen   time.Time
	LastSeen    time.Time

	intervalSum   time.Duration
	intervalCount int
}

// RSSIAvg returns the running average RSSI.
func (d *Device) RSSIAvg() int {
	if d.HitCount == 0 {
		return int(d.RSSILast)
	}
	return d.rssiSum / d.HitCount
}

// AvgInterval returns the average inter-detection interval, if any
// plausible intervals have been accumulated.
func (d *Device) AvgInterval() (time.Duration, bool) {
	if d.intervalCount == 0 {
		return 0, false
	}
	return d.intervalSum / time.Duration(d.intervalCount), true
}

// SignalTrend classifies the RSSI spread: a narrow range means the device
// (or the observer) is stationary, a wide one means relative movement.
func (d *Device) SignalTrend() string {
	spread := int(d.RSSIMax) - int(d.RSSIMin)
	switch {
	case spread < 10:
		return "stable"
	case spread < 20:
		return "moderate"
	default:
		return "moving"
	}
}

// hashMAC is FNV-1a over the 6 raw MAC bytes. The all-zero result is
// remapped to 1 because 0 is the empty-slot sentinel.
func hashMAC(mac MAC) uint32 {
	hash := uint32(2166136261)
	for _, b := range mac {
		hash ^= uint32(b)
		hash *= 16777619
	}
	if hash == 0 {
		return 1
	}
	return hash
}

// Tracker is the fixed-capacity open-addressed tracked device table.
// It is mutated only by the processing task; other contexts read it
// through TrySnapshot, which skips rather than blocks on contention.
type Tracker struct {
	mu         sync.Mutex
	slots      [config.MaxTracked]Device
	entries    int
	collisions int
}

// NewTracker creates an empty table.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records a detection for mac. It returns a copy of the entry
// after the update and whether this counts as a new detection: either the
// MAC was never tracked, or its last sighting is older than ttl. Existing
// entries are reused across the TTL boundary, so history survives
// re-detection.
//
// A NoSignal event never mutates the table: it reads an existing entry
// without touching its RSSI or interval statistics, and is ignored for a
// MAC the table has never seen.
//
// Returns ErrTableFull when the probe neighborhood is saturated; the
// table is left unchanged.
func (t *Tracker) Observe(evt Event, ttl time.Duration) (Device, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hash := hashMAC(evt.MAC)
	idx := hash & (config.MaxTracked - 1)

	for probe := uint32(0); probe < config.MaxProbe; probe++ {
		slot := &t.slots[(idx+probe)&(config.MaxTracked-1)]

		if slot.Hash == 0 {
			if evt.NoSignal {
				return Device{}, false, nil
			}
			*slot = Device{
				Hash:        hash,
				MAC:         evt.MAC,
				RSSIMin:     evt.RSSI,
				RSSIMax:     evt.RSSI,
				RSSILast:    evt.RSSI,
				rssiSum:     int(evt.RSSI),
				HitCount:    1,
				LastChannel: evt.Channel,
				LastType:    evt.Type,
				FirstSeen:   evt.At,
				LastSeen:    evt.At,
			}
			t.entries++
			if probe > 0 {
				t.collisions++
			}
			return *slot, true, nil
		}

		if slot.Hash == hash {
			expired := evt.At.Sub(slot.LastSeen) > ttl
			if !evt.NoSignal {
				slot.update(evt)
			}
			return *slot, expired, nil
		}
	}

	return Device{}, false, ErrTableFull
}

// Lookup returns a copy of the entry for mac, if tracked.
func (t *Tracker) Lookup(mac MAC) (Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hash := hashMAC(mac)
	idx := hash & (config.MaxTracked - 1)

	for probe := uint32(0); probe < config.MaxProbe; probe++ {
		slot := &t.slots[(idx+probe)&(config.MaxTracked-1)]
		if slot.Hash == 0 {
			return Device{}, false
		}
		if slot.Hash == hash {
			return *slot, true
		}
	}
	return Device{}, false
}

func (d *Device) update(evt Event) {
	d.RSSILast = evt.RSSI
	if evt.RSSI < d.RSSIMin {
		d.RSSIMin = evt.RSSI
	}
	if evt.RSSI > d.RSSIMax {
		d.RSSIMax = evt.RSSI
	}
	d.rssiSum += int(evt.RSSI)

	interval := evt.At.Sub(d.LastSeen)
	if interval > config.MinProbeInterval && interval < config.MaxProbeInterval {
		d.intervalSum += interval
		d.intervalCount++
	}

	d.HitCount++
	d.LastSeen = evt.At
	d.LastChannel = evt.Channel
	d.LastType = evt.Type
}

// Entries returns the number of occupied slots.
func (t *Tracker) Entries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries
}

// Collisions returns the number of inserts that needed probing.
func (t *Tracker) Collisions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collisions
}

// TrySnapshot returns copies of all occupied entries, most recently seen
// first. It never blocks: if the table is being mutated, it returns
// ok=false and the caller keeps its previous (possibly stale) view.
func (t *Tracker) TrySnapshot() ([]Device, bool) {
	if !t.mu.TryLock() {
		return nil, false
	}
	defer t.mu.Unlock()

	out := make([]Device, 0, t.entries)
	for i := range t.slots {
		if t.slots[i].Hash != 0 {
			out = append(out, t.slots[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out, true
}
