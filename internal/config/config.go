package config

import "time"

const (
	// Detection queue
	QueueCapacity = 16                     // Bounded FIFO between radio callbacks and the processor
	PopTimeout    = 100 * time.Millisecond // Processor wakes at least this often for housekeeping

	// Tracked device table
	MaxTracked   = 64 // Must be a power of two (slot index is hash & mask)
	MaxProbe     = 8  // Linear probe hard limit
	DetectionTTL = 300 * time.Second

	// Probe interval accumulation: intervals outside this window are
	// startup artifacts or multi-minute gaps and would pollute the average.
	MinProbeInterval = 10 * time.Millisecond
	MaxProbeInterval = 30 * time.Second

	// Channel scheduler (2.4 GHz, channels 1-13)
	MaxChannel        = 13
	DwellBase         = 200 * time.Millisecond  // Quiet channels
	DwellActive       = 800 * time.Millisecond  // Moderately active channels
	DwellHigh         = 1500 * time.Millisecond // Very active channels
	ActiveThreshold   = 5                       // Frames per dwell
	HighThreshold     = 20                      // Frames per dwell
	DetectionBonus    = 500 * time.Millisecond  // Extra dwell per lifetime detection
	MaxDwell          = 3000 * time.Millisecond // Cap on total dwell
	StickyDuration    = 5 * time.Second         // Stay on channel after a detection
	SchedulerInterval = 50 * time.Millisecond

	// Alert state machine
	DetectedToAlert  = 5 * time.Second  // Quiet period before Detected -> Alert
	DefaultAlertHold = 15 * time.Second // Alert -> Scanning; 0 holds until reset
	FlashMinInterval = 50 * time.Millisecond
	FlashMaxInterval = 400 * time.Millisecond
	FlashStrongRSSI  = -40 // dBm, clamped band for flash interpolation
	FlashWeakRSSI    = -80

	// BLE scanning
	BLEScanInterval = 2 * time.Second

	// WiFi scan source (iw/nmcli fallback when no monitor mode)
	WiFiScanInterval = 10 * time.Second

	// Diagnostics
	StatsInterval = 5 * time.Second

	// UI
	TargetFPS        = 30
	MaxDetectionRows = 100 // Detection feed kept in memory for the UI
	RSSIHistorySize  = 60  // Samples kept for the detail sparkline

	// App
	AppName    = "FLOCK-SENTRY"
	AppVersion = "1.0"
)
