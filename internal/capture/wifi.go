// Package capture contains the radio event producers: the 802.11
// management frame path, the BLE advertisement path, and the demo source.
// Producers build fixed-size detection events on the stack and enqueue
// them without blocking; everything else happens in the processor.
package capture

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/hopper"
)

// 802.11 management subtypes the pipeline cares about.
const (
	subtypeProbeRequest  = 0x4
	subtypeProbeResponse = 0x5
	subtypeBeacon        = 0x8

	mgmtHeaderLen = 24 // fc(2) + dur(2) + addr1(6) + addr2(6) + addr3(6) + seq(2)
	fixedFieldLen = 12 // timestamp(8) + beacon interval(2) + capability(2)
	maxSSIDLen    = 32
)

// Frame parsing errors
var (
	ErrFrameTooShort = errors.New("frame too short for management header")
	ErrNotManagement = errors.New("not a qualifying management frame")
)

// Frame is a parsed 802.11 management frame of interest.
type Frame struct {
	Type detect.EventType
	MAC  detect.MAC // transmitter address (addr2)
	SSID string     // empty means hidden or absent
}

// ParseMgmtFrame extracts the transmitter MAC and SSID from a raw 802.11
// frame. Only probe requests, probe responses and beacons qualify; all
// other frames return ErrNotManagement. An SSID element with length 0 or
// greater than 32 is treated as absent (hidden network), not an error.
func ParseMgmtFrame(raw []byte) (Frame, error) {
	if len(raw) < mgmtHeaderLen {
		return Frame{}, ErrFrameTooShort
	}

	fc := raw[0]
	ftype := (fc >> 2) & 0x3
	subtype := fc >> 4
	if ftype != 0 {
		return Frame{}, ErrNotManagement
	}

	var f Frame
	switch subtype {
	case subtypeProbeRequest:
		f.Type = detect.EventProbeRequest
	case subtypeProbeResponse:
		f.Type = detect.EventProbeResponse
	case subtypeBeacon:
		f.Type = detect.EventBeacon
	default:
		return Frame{}, ErrNotManagement
	}

	copy(f.MAC[:], raw[10:16])

	body := raw[mgmtHeaderLen:]
	if f.Type != detect.EventProbeRequest {
		// Probe responses and beacons carry fixed fields before the
		// tagged parameters.
		if len(body) < fixedFieldLen {
			return f, nil
		}
		body = body[fixedFieldLen:]
	}

	// SSID element: id 0, length, data.
	if len(body) >= 2 && body[0] == 0 {
		l := int(body[1])
		if l > 0 && l <= maxSSIDLen && len(body) >= 2+l {
			f.SSID = string(body[2 : 2+l])
		}
	}

	return f, nil
}

// Stats counts capture-side activity for the diagnostics record.
type Stats struct {
	frames atomic.Uint32
	ssids  atomic.Uint32
}

// Frames returns the total management-path frames seen.
func (s *Stats) Frames() uint32 { return s.frames.Load() }

// SSIDs returns the total frames carrying a visible SSID.
func (s *Stats) SSIDs() uint32 { return s.ssids.Load() }

// WiFiHandler is the per-frame entry point invoked from the radio
// capture context. It must never block, allocate beyond the event, or
// take a lock.
type WiFiHandler struct {
	queue *detect.Queue
	hop   *hopper.Hopper // may be nil
	stats *Stats
}

// NewWiFiHandler creates the frame handler.
func NewWiFiHandler(queue *detect.Queue, hop *hopper.Hopper, stats *Stats) *WiFiHandler {
	if stats == nil {
		stats = &Stats{}
	}
	return &WiFiHandler{queue: queue, hop: hop, stats: stats}
}

// HandleFrame processes one received frame: count it toward the channel's
// dwell activity, filter to qualifying management subtypes, and attempt a
// non-blocking enqueue. Queue overflow drops the event (counted by the
// queue) and returns immediately.
func (h *WiFiHandler) HandleFrame(raw []byte, rssi int8, ch uint8, at time.Time) {
	h.stats.frames.Add(1)
	if h.hop != nil {
		h.hop.RecordFrame(ch)
	}

	f, err := ParseMgmtFrame(raw)
	if err != nil {
		return
	}
	if f.SSID != "" {
		h.stats.ssids.Add(1)
	}

	h.queue.Push(detect.Event{
		MAC:     f.MAC,
		Name:    f.SSID,
		RSSI:    rssi,
		Channel: ch,
		Type:    f.Type,
		At:      at,
	})
}
