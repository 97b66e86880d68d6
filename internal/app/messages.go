package app

import (
	"time"

	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/emit"
)

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// DetectionMsg carries a finalized detection record from the processor.
type DetectionMsg emit.Record

// ChannelMsg reports a completed channel hop.
type ChannelMsg uint8

// AlertMsg reports an alert state transition.
type AlertMsg struct {
	State detect.AlertState
	RSSI  int8
}

// StatsMsg carries a periodic pipeline diagnostics record.
type StatsMsg emit.Stats

// DebugEventMsg carries a non-matching BLE advertisement from the debug
// passthrough.
type DebugEventMsg detect.Event

// PipelineErrorMsg reports a fatal pipeline error.
type PipelineErrorMsg struct {
	Err error
}
