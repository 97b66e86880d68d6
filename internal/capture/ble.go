package capture

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/fingerprint"
)

// BLEFilter prefilters advertisements against the fingerprint database
// before they touch the queue, so a busy radio environment can't flood it
// with irrelevant traffic. Non-matching advertisements are forwarded to
// the debug feed (never the queue) when one is attached and enabled.
type BLEFilter struct {
	queue   *detect.Queue
	prints  *fingerprint.Set
	debugOn atomic.Bool
	onDebug func(detect.Event) // may be nil
}

// NewBLEFilter creates the advertisement prefilter.
func NewBLEFilter(queue *detect.Queue, prints *fingerprint.Set, onDebug func(detect.Event)) *BLEFilter {
	return &BLEFilter{queue: queue, prints: prints, onDebug: onDebug}
}

// SetDebug toggles the non-matching passthrough to the debug feed.
func (f *BLEFilter) SetDebug(on bool) { f.debugOn.Store(on) }

// Offer runs the prefilter on one advertisement and enqueues it if it
// matches. Returns whether the event was queued. Never blocks.
func (f *BLEFilter) Offer(mac detect.MAC, name string, rssi int8, at time.Time) bool {
	_, macMatch := f.prints.MatchMACPrefix(mac.Prefix())
	_, nameMatch := f.prints.MatchName(name)

	evt := detect.Event{
		MAC:  mac,
		Name: name,
		RSSI: rssi,
		Type: detect.EventBLEMACMatch,
		At:   at,
	}
	if !macMatch && !nameMatch {
		if f.debugOn.Load() && f.onDebug != nil {
			f.onDebug(evt)
		}
		return false
	}
	if !macMatch {
		evt.Type = detect.EventBLENameMatch
	}
	return f.queue.Push(evt)
}

// BLEScanner listens for BLE advertisements on the default adapter and
// feeds them through the prefilter.
type BLEScanner struct {
	adapter  *bluetooth.Adapter
	filter   *BLEFilter
	prints   *fingerprint.Set
	resolver *NameResolver // may be nil
	logger   *zap.Logger
	running  atomic.Bool
}

// NewBLEScanner creates a scanner over the default adapter.
func NewBLEScanner(filter *BLEFilter, prints *fingerprint.Set, resolver *NameResolver, logger *zap.Logger) *BLEScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BLEScanner{
		adapter:  bluetooth.DefaultAdapter,
		filter:   filter,
		prints:   prints,
		resolver: resolver,
		logger:   logger,
	}
}

// Start enables the adapter and begins a passive scan in a goroutine.
func (s *BLEScanner) Start() error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w (try running with sudo or setcap cap_net_admin+ep)", err)
	}

	s.running.Store(true)
	go func() {
		err := s.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !s.running.Load() {
				return
			}
			s.onAdvertisement(result)
		})
		if err != nil && s.running.Load() {
			s.logger.Warn("BLE scan stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *BLEScanner) onAdvertisement(result bluetooth.ScanResult) {
	mac, err := detect.ParseMAC(result.Address.String())
	if err != nil {
		return
	}

	name := result.LocalName()
	if name == "" {
		// Identify by manufacturer data when the advertisement carries
		// no local name.
		if mfrs := result.ManufacturerData(); len(mfrs) > 0 {
			if mfrName := LookupManufacturer(mfrs[0].CompanyID); mfrName != "" {
				name = mfrName
			}
		}
	}
	if len(name) > maxSSIDLen {
		name = name[:maxSSIDLen]
	}

	s.filter.Offer(mac, name, clampRSSI(int(result.RSSI)), time.Now())

	// A prefix-matched device with no name is worth a name request: a
	// resolved name can upgrade the match to combined confidence.
	if name == "" && s.resolver != nil {
		if _, ok := s.prints.MatchMACPrefix(mac.Prefix()); ok {
			s.resolver.RequestResolve(mac)
		}
	}
}

// Stop halts the scanner.
func (s *BLEScanner) Stop() {
	s.running.Store(false)
	_ = s.adapter.StopScan()
}
