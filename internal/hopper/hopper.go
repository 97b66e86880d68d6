// Package hopper implements the adaptive WiFi channel scheduler. It
// cycles channels 1-13, dwelling longer on channels with frame activity
// or a history of detections, and pins the current channel briefly after
// a detection so a signal isn't lost mid-hop.
package hopper

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
)

// Radio applies the active channel to the capture hardware.
type Radio interface {
	SetChannel(ch uint8) error
}

// Hopper drives channel hopping. Activity counters are written from
// radio callback contexts and therefore use atomics; the hop decision
// runs on a single goroutine.
type Hopper struct {
	radio     Radio
	logger    *zap.Logger
	onChannel func(uint8) // may be nil

	current     atomic.Uint32
	activity    [config.MaxChannel + 1]atomic.Uint32 // frames this dwell, reset on hop
	detections  [config.MaxChannel + 1]atomic.Uint32 // lifetime, never reset
	stickyUntil atomic.Int64                         // unix nanos

	lastHop time.Time // owned by the scheduler goroutine (and tests)
}

// New creates a hopper starting on channel 1. onChannel is notified after
// each applied hop.
func New(radio Radio, logger *zap.Logger, onChannel func(uint8)) *Hopper {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hopper{radio: radio, logger: logger, onChannel: onChannel}
	h.current.Store(1)
	return h
}

// Current returns the active channel.
func (h *Hopper) Current() uint8 { return uint8(h.current.Load()) }

// RecordFrame counts a received frame toward the channel's current dwell.
// Called from the capture callback; never blocks.
func (h *Hopper) RecordFrame(ch uint8) {
	if ch >= 1 && ch <= config.MaxChannel {
		h.activity[ch].Add(1)
	}
}

// NoteDetection bumps the channel's lifetime detection counter and
// extends the sticky window so the scheduler stays put.
func (h *Hopper) NoteDetection(ch uint8) {
	if ch >= 1 && ch <= config.MaxChannel {
		h.detections[ch].Add(1)
	}
	h.stickyUntil.Store(time.Now().Add(config.StickyDuration).UnixNano())
}

// Sticky reports whether the post-detection pin is currently active.
func (h *Hopper) Sticky() bool {
	return time.Now().UnixNano() < h.stickyUntil.Load()
}

// Activity returns the frame count for ch in the current dwell.
func (h *Hopper) Activity(ch uint8) uint32 {
	if ch < 1 || ch > config.MaxChannel {
		return 0
	}
	return h.activity[ch].Load()
}

// Detections returns the lifetime detection count for ch.
func (h *Hopper) Detections(ch uint8) uint32 {
	if ch < 1 || ch > config.MaxChannel {
		return 0
	}
	return h.detections[ch].Load()
}

// Start runs the scheduler loop until ctx is cancelled.
func (h *Hopper) Start(ctx context.Context) {
	h.lastHop = time.Now()
	go func() {
		ticker := time.NewTicker(config.SchedulerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h.tick(now)
			}
		}
	}()
}

// tick evaluates one scheduler step: honor the sticky window, compute the
// current channel's required dwell, and hop when it has elapsed.
func (h *Hopper) tick(now time.Time) {
	if now.UnixNano() < h.stickyUntil.Load() {
		return
	}

	ch := h.Current()
	if now.Sub(h.lastHop) < h.dwellFor(ch) {
		return
	}

	// Departing: this channel's dwell activity is spent.
	h.activity[ch].Store(0)

	next := ch + 1
	if next > config.MaxChannel {
		next = 1
	}
	h.current.Store(uint32(next))
	h.lastHop = now

	if err := h.radio.SetChannel(next); err != nil {
		h.logger.Warn("failed to set channel", zap.Uint8("channel", next), zap.Error(err))
	}
	if h.onChannel != nil {
		h.onChannel(next)
	}
}

// dwellFor computes the required dwell for a channel: a tier from the
// current activity level plus a bonus per lifetime detection, capped.
func (h *Hopper) dwellFor(ch uint8) time.Duration {
	activity := h.Activity(ch)

	dwell := config.DwellBase
	if activity >= config.HighThreshold {
		dwell = config.DwellHigh
	} else if activity >= config.ActiveThreshold {
		dwell = config.DwellActive
	}

	if det := h.Detections(ch); det > 0 {
		dwell += config.DetectionBonus * time.Duration(det)
		if dwell > config.MaxDwell {
			dwell = config.MaxDwell
		}
	}
	return dwell
}
