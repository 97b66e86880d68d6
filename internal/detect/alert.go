package detect

import (
	"sync"
	"time"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
)

// AlertState is the three-stage alert lifecycle driven by detections.
type AlertState int

const (
	StateScanning AlertState = iota // No recent detections
	StateDetected                   // Active detection, renderer flashes
	StateAlert                      // Recent detection, signal quiet
)

func (s AlertState) String() string {
	switch s {
	case StateDetected:
		return "DETECTED"
	case StateAlert:
		return "ALERT"
	default:
		return "SCANNING"
	}
}

// Alert converts detection timing and signal strength into the
// Scanning/Detected/Alert lifecycle. It is triggered by the processing
// task and advanced by time in Tick; renderers read it through TryStatus
// so a busy pipeline costs them at most a stale frame.
type Alert struct {
	mu         sync.Mutex
	state      AlertState
	rssi       int8
	detectedAt time.Time // Last detection (refreshed on re-trigger)
	hold       time.Duration
}

// NewAlert creates an alert machine in Scanning state. hold is how long
// Alert persists before returning to Scanning; zero means Alert holds
// until Reset (the behavior of hardware variants without a timeout).
func NewAlert(hold time.Duration) *Alert {
	return &Alert{rssi: -100, hold: hold}
}

// Trigger records a new detection. Any state returns to Detected with the
// triggering RSSI and a refreshed timestamp.
func (a *Alert) Trigger(rssi int8, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateDetected
	a.rssi = rssi
	a.detectedAt = now
}

// Tick advances time-based transitions: Detected -> Alert after a quiet
// period, Alert -> Scanning after the hold expires (if one is set).
// Returns the current state and whether it changed.
func (a *Alert) Tick(now time.Time) (AlertState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.state
	switch a.state {
	case StateDetected:
		if now.Sub(a.detectedAt) >= config.DetectedToAlert {
			a.state = StateAlert
		}
	case StateAlert:
		if a.hold > 0 && now.Sub(a.detectedAt) >= a.hold {
			a.state = StateScanning
		}
	}
	return a.state, a.state != prev
}

// Reset forces the machine back to Scanning.
func (a *Alert) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateScanning
	a.rssi = -100
}

// Status returns the current state and triggering RSSI.
func (a *Alert) Status() (AlertState, int8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.rssi
}

// TryStatus is the skip-on-contention read used by renderers. ok=false
// means the machine was busy and the caller should reuse its last view.
func (a *Alert) TryStatus() (AlertState, int8, bool) {
	if !a.mu.TryLock() {
		return StateScanning, 0, false
	}
	defer a.mu.Unlock()
	return a.state, a.rssi, true
}

// FlashInterval maps RSSI to the renderer's flash period: stronger signal,
// faster flash. RSSI is clamped to [FlashWeakRSSI, FlashStrongRSSI] and
// linearly interpolated to [FlashMinInterval, FlashMaxInterval].
func FlashInterval(rssi int8) time.Duration {
	r := int(rssi)
	if r >= config.FlashStrongRSSI {
		return config.FlashMinInterval
	}
	if r <= config.FlashWeakRSSI {
		return config.FlashMaxInterval
	}
	span := config.FlashStrongRSSI - config.FlashWeakRSSI
	frac := float64(r-config.FlashWeakRSSI) / float64(span)
	return config.FlashMaxInterval - time.Duration(frac*float64(config.FlashMaxInterval-config.FlashMinInterval))
}
