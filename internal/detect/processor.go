package detect

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
	"github.com/JarvisLatteier/flock-sentry/internal/emit"
	"github.com/JarvisLatteier/flock-sentry/internal/fingerprint"
)

// Biaser receives per-channel detection feedback from the processor so
// the channel scheduler can favor productive channels.
type Biaser interface {
	NoteDetection(ch uint8)
}

// FrameCounters exposes capture-side counters for the stats record.
type FrameCounters interface {
	Frames() uint32
	SSIDs() uint32
}

// Callbacks are invoked from the processing goroutine. They must not
// block; the UI boundary forwards them as messages.
type Callbacks struct {
	OnDetection func(emit.Record)
	OnAlert     func(AlertState, int8)
	OnStats     func(emit.Stats)
}

// ProcessorConfig wires the processor's collaborators.
type ProcessorConfig struct {
	Queue        *Queue
	Tracker      *Tracker
	Alert        *Alert
	Fingerprints *fingerprint.Set
	Emitter      *emit.Emitter // may be nil
	Biaser       Biaser        // may be nil
	Counters     FrameCounters // may be nil
	ChannelFn    func() uint8  // current channel for stats; may be nil
	Logger       *zap.Logger
	TTL          time.Duration // zero means config.DetectionTTL
	Callbacks    Callbacks
}

// Processor is the single consumer of the detection queue and the only
// place matching logic executes. All tracked-device and alert mutations
// happen on its goroutine.
type Processor struct {
	cfg       ProcessorConfig
	ttl       time.Duration
	processed atomic.Uint32

	mu      sync.Mutex
	running bool
}

// NewProcessor creates a processor. Queue, Tracker, Alert and
// Fingerprints are required.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = config.DetectionTTL
	}
	return &Processor{cfg: cfg, ttl: ttl}
}

// Processed returns the lifetime count of consumed events.
func (p *Processor) Processed() uint32 { return p.processed.Load() }

// Run consumes the queue until ctx is cancelled. The bounded-wait pop is
// the only blocking point; between events it advances the alert machine
// and emits periodic diagnostics.
func (p *Processor) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrProcessorRunning
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	lastStats := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if evt, ok := p.cfg.Queue.Pop(config.PopTimeout); ok {
			p.processed.Add(1)
			p.Handle(evt)
		}

		now := time.Now()
		if state, changed := p.cfg.Alert.Tick(now); changed && p.cfg.Callbacks.OnAlert != nil {
			_, rssi := p.cfg.Alert.Status()
			p.cfg.Callbacks.OnAlert(state, rssi)
		}

		if now.Sub(lastStats) >= config.StatsInterval {
			p.emitStats()
			lastStats = now
		}
	}
}

// Handle runs matching, deduplication and tracking for one event.
// Exported for tests; production events arrive via Run.
func (p *Processor) Handle(evt Event) {
	if evt.Type.IsWiFi() {
		p.handleWiFi(evt)
	} else {
		p.handleBLE(evt)
	}
}

func (p *Processor) handleWiFi(evt Event) {
	fp := p.cfg.Fingerprints

	ssidPat, ssidMatch := "", false
	if evt.Name != "" {
		ssidPat, ssidMatch = fp.MatchSSID(evt.Name)
	}
	macPat, macMatch := fp.MatchMACPrefix(evt.MAC.Prefix())

	if !ssidMatch && !macMatch {
		return
	}

	// Channel memory: bias the scheduler toward this channel and pin it
	// briefly so the signal isn't lost mid-hop.
	if evt.Channel >= 1 && evt.Channel <= config.MaxChannel && p.cfg.Biaser != nil {
		p.cfg.Biaser.NoteDetection(evt.Channel)
	}

	dev, isNew, err := p.cfg.Tracker.Observe(evt, p.ttl)
	if err != nil {
		p.cfg.Logger.Warn("tracked device table insert failed",
			zap.String("mac", evt.MAC.String()),
			zap.Error(err))
		return
	}
	if !isNew {
		return
	}

	method := evt.Type.String()
	if !ssidMatch {
		method += "_mac"
	}

	rec := p.buildRecord(evt, dev, method, "wifi")
	rec.SSID = evt.Name
	if rec.SSID == "" {
		rec.SSID = "hidden"
	}
	rec.Channel = int(evt.Channel)
	rec.MatchedSSIDPattern = ssidPat
	rec.MatchedMACPattern = macPat
	rec.Criteria, rec.ThreatScore = classify(ssidMatch, macMatch, "SSID")

	p.finish(evt, rec)
}

func (p *Processor) handleBLE(evt Event) {
	fp := p.cfg.Fingerprints

	// Re-match what the capture prefilter saw, for confidence classification.
	macPat, macMatch := fp.MatchMACPrefix(evt.MAC.Prefix())
	namePat, nameMatch := fp.MatchName(evt.Name)
	if !macMatch && !nameMatch {
		return
	}

	dev, isNew, err := p.cfg.Tracker.Observe(evt, p.ttl)
	if err != nil {
		p.cfg.Logger.Warn("tracked device table insert failed",
			zap.String("mac", evt.MAC.String()),
			zap.Error(err))
		return
	}
	if !isNew {
		return
	}

	method := "mac_prefix"
	if !macMatch {
		method = "device_name"
	}

	rec := p.buildRecord(evt, dev, method, "ble")
	rec.DeviceName = evt.Name
	rec.MatchedMACPattern = macPat
	rec.MatchedNamePattern = namePat
	rec.Criteria, rec.ThreatScore = classify(nameMatch, macMatch, "NAME")

	p.finish(evt, rec)
}

func (p *Processor) buildRecord(evt Event, dev Device, method, protocol string) emit.Record {
	rssi := int(evt.RSSI)
	if evt.NoSignal {
		rssi = int(dev.RSSILast)
	}
	rec := emit.Record{
		Timestamp:      evt.At,
		Protocol:       protocol,
		Method:         method,
		MAC:            evt.MAC.String(),
		MACPrefix:      evt.MAC.Prefix(),
		RSSI:           rssi,
		SignalStrength: emit.SignalStrength(rssi),
		RSSIMin:        int(dev.RSSIMin),
		RSSIMax:        int(dev.RSSIMax),
		RSSIAvg:        dev.RSSIAvg(),
		HitCount:       dev.HitCount,
		SignalTrend:    dev.SignalTrend(),
	}
	if avg, ok := dev.AvgInterval(); ok {
		rec.AvgProbeIntervalMs = avg.Milliseconds()
	}
	return rec
}

func (p *Processor) finish(evt Event, rec emit.Record) {
	if p.cfg.Emitter != nil {
		if err := p.cfg.Emitter.Emit(rec); err != nil {
			p.cfg.Logger.Warn("failed to emit detection record", zap.Error(err))
		}
	}
	if p.cfg.Callbacks.OnDetection != nil {
		p.cfg.Callbacks.OnDetection(rec)
	}

	p.cfg.Alert.Trigger(int8(rec.RSSI), evt.At)
	if p.cfg.Callbacks.OnAlert != nil {
		state, rssi := p.cfg.Alert.Status()
		p.cfg.Callbacks.OnAlert(state, rssi)
	}

	p.cfg.Logger.Info("new detection",
		zap.String("mac", rec.MAC),
		zap.String("protocol", rec.Protocol),
		zap.String("method", rec.Method),
		zap.Int("rssi", rec.RSSI),
		zap.Int("threat_score", rec.ThreatScore))
}

// classify derives the confidence criteria and threat score from which
// pattern categories matched. primary is "SSID" for WiFi, "NAME" for BLE.
func classify(primaryMatch, macMatch bool, primary string) (string, int) {
	switch {
	case primaryMatch && macMatch:
		return primary + "_AND_MAC", 100
	case primaryMatch:
		return primary + "_ONLY", 85
	case macMatch:
		return "MAC_ONLY", 85
	default:
		return "NONE", 70
	}
}

func (p *Processor) emitStats() {
	s := emit.Stats{
		QueueDepth: p.cfg.Queue.Len(),
		Processed:  p.processed.Load(),
		Dropped:    p.cfg.Queue.Dropped(),
		Tracked:    p.cfg.Tracker.Entries(),
		Collisions: p.cfg.Tracker.Collisions(),
	}
	if p.cfg.Counters != nil {
		s.Frames = p.cfg.Counters.Frames()
		s.SSIDs = p.cfg.Counters.SSIDs()
	}
	if p.cfg.ChannelFn != nil {
		s.Channel = int(p.cfg.ChannelFn())
	}

	if p.cfg.Emitter != nil {
		if err := p.cfg.Emitter.EmitStats(s); err != nil {
			p.cfg.Logger.Warn("failed to emit stats record", zap.Error(err))
		}
	}
	if p.cfg.Callbacks.OnStats != nil {
		p.cfg.Callbacks.OnStats(s)
	}

	p.cfg.Logger.Debug("pipeline stats",
		zap.Uint32("frames", s.Frames),
		zap.Uint32("processed", s.Processed),
		zap.Uint32("dropped", s.Dropped),
		zap.Int("queue", s.QueueDepth),
		zap.Int("tracked", s.Tracked),
		zap.Int("collisions", s.Collisions))
}
