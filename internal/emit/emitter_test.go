package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)

	rec := Record{
		Timestamp:      time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Protocol:       "wifi",
		Method:         "beacon",
		SSID:           "Flock-7F2A",
		MAC:            "58:8e:81:00:11:22",
		MACPrefix:      "58:8e:81",
		RSSI:           -52,
		SignalStrength: "MEDIUM",
		Channel:        6,
		Criteria:       "SSID_AND_MAC",
		ThreatScore:    100,
		SignalTrend:    "stable",
	}
	require.NoError(t, e.Emit(rec))
	require.NoError(t, e.Emit(rec))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.NotContains(t, line, "\n")

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		assert.Equal(t, "wifi", decoded["protocol"])
		assert.Equal(t, "beacon", decoded["detection_method"])
		assert.Equal(t, "58:8e:81:00:11:22", decoded["mac_address"])
		assert.Equal(t, float64(-52), decoded["rssi"])
		assert.Equal(t, "SSID_AND_MAC", decoded["detection_criteria"])
		assert.Equal(t, float64(100), decoded["threat_score"])
	}
}

func TestEmitOmitsEmptyOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)

	require.NoError(t, e.Emit(Record{Protocol: "ble", Method: "device_name", MAC: "aa:bb:cc:dd:ee:ff"}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotContains(t, decoded, "ssid")
	assert.NotContains(t, decoded, "channel")
	assert.NotContains(t, decoded, "matched_ssid_pattern")
	assert.NotContains(t, decoded, "avg_probe_interval_ms")
}

func TestEmitStatsType(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)

	require.NoError(t, e.EmitStats(Stats{Frames: 120, Channel: 6, Tracked: 3}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "stats", decoded["type"])
	assert.Equal(t, float64(120), decoded["frames_seen"])
	assert.Equal(t, float64(6), decoded["channel"])
	assert.Equal(t, float64(3), decoded["tracked_devices"])
}

func TestSignalStrengthBuckets(t *testing.T) {
	assert.Equal(t, "STRONG", SignalStrength(-49))
	assert.Equal(t, "MEDIUM", SignalStrength(-50))
	assert.Equal(t, "MEDIUM", SignalStrength(-69))
	assert.Equal(t, "WEAK", SignalStrength(-70))
	assert.Equal(t, "WEAK", SignalStrength(-90))
}
