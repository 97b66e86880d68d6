package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/emit"
)

func newTestModel(t *testing.T) AppModel {
	t.Helper()
	pl := NewPipeline(Options{Demo: true})
	return New(pl, "demo")
}

func update(m AppModel, msg tea.Msg) AppModel {
	next, _ := m.Update(msg)
	return next.(AppModel)
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDetectionFeedNewestFirstAndCapped(t *testing.T) {
	m := newTestModel(t)

	for i := 0; i < config.MaxDetectionRows+10; i++ {
		m = update(m, DetectionMsg(emit.Record{MAC: "aa:bb:cc:00:00:00", ThreatScore: i}))
	}

	assert.Len(t, m.records, config.MaxDetectionRows)
	assert.Equal(t, config.MaxDetectionRows+9, m.records[0].ThreatScore, "newest record first")
	assert.Equal(t, config.MaxDetectionRows+10, m.detections)
}

func TestClearKeepsLifetimeCount(t *testing.T) {
	m := newTestModel(t)

	m = update(m, DetectionMsg(emit.Record{MAC: "aa:bb:cc:00:00:00"}))
	m = update(m, DetectionMsg(emit.Record{MAC: "aa:bb:cc:00:00:01"}))
	m = update(m, keyMsg("c"))

	assert.Empty(t, m.records)
	assert.Equal(t, 2, m.detections)
	assert.Zero(t, m.cursor)
}

func TestCursorBounds(t *testing.T) {
	m := newTestModel(t)
	m = update(m, DetectionMsg(emit.Record{MAC: "aa:bb:cc:00:00:00"}))
	m = update(m, DetectionMsg(emit.Record{MAC: "aa:bb:cc:00:00:01"}))

	m = update(m, keyMsg("k"))
	assert.Zero(t, m.cursor, "cursor stops at the top")

	m = update(m, keyMsg("j"))
	m = update(m, keyMsg("j"))
	assert.Equal(t, 1, m.cursor, "cursor stops at the last row")
}

func TestAlertMsgUpdatesState(t *testing.T) {
	m := newTestModel(t)

	m = update(m, AlertMsg{State: detect.StateDetected, RSSI: -52})
	assert.Equal(t, detect.StateDetected, m.alertState)
	assert.Equal(t, int8(-52), m.alertRSSI)

	// Leaving Detected parks the flash in the visible phase.
	m.flashOn = false
	m = update(m, AlertMsg{State: detect.StateAlert, RSSI: -52})
	assert.True(t, m.flashOn)
}

func TestFlashTogglesAtInterval(t *testing.T) {
	m := newTestModel(t)
	// Ticks re-read the alert machine, so drive the real one.
	m.shared.pl.Alert.Trigger(-40, time.Now())
	m = update(m, AlertMsg{State: detect.StateDetected, RSSI: -40})

	base := time.Now()
	m.lastFlash = base
	wasOn := m.flashOn

	m = update(m, TickMsg(base.Add(detect.FlashInterval(-40)/2)))
	assert.Equal(t, wasOn, m.flashOn, "no toggle before the interval elapses")

	m = update(m, TickMsg(base.Add(detect.FlashInterval(-40))))
	assert.Equal(t, !wasOn, m.flashOn)
}

func TestMouseWheelMovesCursor(t *testing.T) {
	m := newTestModel(t)
	m = update(m, DetectionMsg(emit.Record{MAC: "aa:bb:cc:00:00:00"}))
	m = update(m, DetectionMsg(emit.Record{MAC: "aa:bb:cc:00:00:01"}))

	m = update(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 1, m.cursor)
	m = update(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 1, m.cursor, "wheel stops at the last row")

	m = update(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	assert.Zero(t, m.cursor)
}

func TestMouseClickSelectsEntry(t *testing.T) {
	m := newTestModel(t)
	m = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(m, DetectionMsg(emit.Record{MAC: "58:8e:81:00:00:02"}))
	m = update(m, DetectionMsg(emit.Record{MAC: "58:8e:81:00:00:01"}))
	m = update(m, DetectionMsg(emit.Record{MAC: "58:8e:81:00:00:00"}))

	// Second entry: menu bar, top border and two header lines above it,
	// four lines per entry.
	m = update(m, tea.MouseMsg{X: 70, Y: 8, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, "58:8e:81:00:00:01", m.detailMAC)

	// Clicks over the left panel leave the selection alone.
	m = update(m, tea.MouseMsg{X: 10, Y: 8, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, 1, m.cursor)
}

func TestDetailSelection(t *testing.T) {
	m := newTestModel(t)
	m = update(m, DetectionMsg(emit.Record{MAC: "58:8e:81:00:11:22"}))

	m = update(m, keyMsg("enter"))
	assert.Equal(t, "58:8e:81:00:11:22", m.detailMAC)

	m = update(m, keyMsg("esc"))
	assert.Empty(t, m.detailMAC)
}

func TestResetAlertKey(t *testing.T) {
	m := newTestModel(t)
	m.shared.pl.Alert.Trigger(-50, time.Now())
	m = update(m, AlertMsg{State: detect.StateDetected, RSSI: -50})

	m = update(m, keyMsg("r"))

	assert.Equal(t, detect.StateScanning, m.alertState)
	state, _ := m.shared.pl.Alert.Status()
	assert.Equal(t, detect.StateScanning, state)
}

func TestViewRendersAfterResize(t *testing.T) {
	m := newTestModel(t)

	assert.Contains(t, m.View(), "Initializing")

	m = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(m, DetectionMsg(emit.Record{
		MAC: "58:8e:81:00:11:22", SSID: "Flock-7F2A", Protocol: "wifi",
		Method: "beacon", RSSI: -52, SignalStrength: "MEDIUM", ThreatScore: 100,
	}))

	view := m.View()
	require.NotEmpty(t, view)
	assert.Contains(t, view, "DETECTIONS [1]")
	assert.Contains(t, view, "CHANNELS")
}

func TestRSSIRing(t *testing.T) {
	r := NewRSSIRing(3)
	assert.Nil(t, r.Values())

	r.Push(-60)
	r.Push(-55)
	assert.Equal(t, []float64{-60, -55}, r.Values())

	r.Push(-50)
	r.Push(-45) // evicts -60
	assert.Equal(t, []float64{-55, -50, -45}, r.Values())
	assert.Equal(t, 3, r.Len())
}
