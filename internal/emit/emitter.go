// Package emit serializes finalized detections into line-oriented JSON
// records for the serial/UI boundary. One record per new detection;
// re-detections update tracking state without emitting.
package emit

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Record is the boundary-facing detection record. Field names match the
// wire format consumed by the desktop dashboard.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	Protocol       string    `json:"protocol"` // "wifi" or "ble"
	Method         string    `json:"detection_method"`
	SSID           string    `json:"ssid,omitempty"`
	DeviceName     string    `json:"device_name,omitempty"`
	MAC            string    `json:"mac_address"`
	MACPrefix      string    `json:"mac_prefix"`
	RSSI           int       `json:"rssi"`
	SignalStrength string    `json:"signal_strength"`
	Channel        int       `json:"channel,omitempty"` // WiFi only

	MatchedSSIDPattern string `json:"matched_ssid_pattern,omitempty"`
	MatchedMACPattern  string `json:"matched_mac_pattern,omitempty"`
	MatchedNamePattern string `json:"matched_name_pattern,omitempty"`

	Criteria    string `json:"detection_criteria"`
	ThreatScore int    `json:"threat_score"`

	// Enrichment from the tracked device table
	RSSIMin            int    `json:"rssi_min"`
	RSSIMax            int    `json:"rssi_max"`
	RSSIAvg            int    `json:"rssi_avg"`
	HitCount           int    `json:"hit_count"`
	AvgProbeIntervalMs int64  `json:"avg_probe_interval_ms,omitempty"`
	SignalTrend        string `json:"signal_trend"`
}

// Stats is the periodic diagnostics record emitted alongside detections.
type Stats struct {
	Type       string `json:"type"` // always "stats"
	Frames     uint32 `json:"frames_seen"`
	SSIDs      uint32 `json:"ssids_seen"`
	Channel    int    `json:"channel"`
	QueueDepth int    `json:"queue_depth"`
	Processed  uint32 `json:"events_processed"`
	Dropped    uint32 `json:"events_dropped"`
	Tracked    int    `json:"tracked_devices"`
	Collisions int    `json:"hash_collisions"`
}

// SignalStrength buckets an RSSI into the coarse label carried on records.
func SignalStrength(rssi int) string {
	switch {
	case rssi > -50:
		return "STRONG"
	case rssi > -70:
		return "MEDIUM"
	default:
		return "WEAK"
	}
}

// Emitter writes one JSON object per line. Safe for concurrent use.
type Emitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// New creates an emitter writing to w. A nil-writer emitter is not valid;
// callers that want to discard records should pass io.Discard.
func New(w io.Writer) *Emitter {
	return &Emitter{enc: json.NewEncoder(w)}
}

// Emit writes a detection record as a single JSON line.
func (e *Emitter) Emit(r Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(r)
}

// EmitStats writes a diagnostics record as a single JSON line.
func (e *Emitter) EmitStats(s Stats) error {
	s.Type = "stats"
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(s)
}
