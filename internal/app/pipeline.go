package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/JarvisLatteier/flock-sentry/internal/capture"
	"github.com/JarvisLatteier/flock-sentry/internal/config"
	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/emit"
	"github.com/JarvisLatteier/flock-sentry/internal/fingerprint"
	"github.com/JarvisLatteier/flock-sentry/internal/hopper"
)

// ErrNoCaptureSource means neither a WiFi scan tool nor a BLE adapter
// could be started on this host.
var ErrNoCaptureSource = errors.New("no capture source available (need nmcli, iw, or a BLE adapter; try --demo)")

// Options configures pipeline assembly.
type Options struct {
	Demo         bool
	Iface        string // WiFi interface; empty auto-detects
	Fingerprints *fingerprint.Set
	AlertHold    time.Duration // 0 = alert persists until reset
	Emitter      *emit.Emitter // may be nil
	Logger       *zap.Logger
}

// Pipeline owns the full capture-to-emit chain: sources feed the bounded
// queue, the hopper schedules channels, the processor consumes and emits.
// Shared between the Bubble Tea model copies and headless mode.
type Pipeline struct {
	Queue   *detect.Queue
	Tracker *detect.Tracker
	Alert   *detect.Alert
	Hopper  *hopper.Hopper
	Stats   *capture.Stats
	Filter  *capture.BLEFilter
	Handler *capture.WiFiHandler

	opts      Options
	processor *detect.Processor
	demo      *capture.DemoSource
	iw        *capture.IWSource
	ble       *capture.BLEScanner
	resolver  *capture.NameResolver
	cancel    context.CancelFunc
	logger    *zap.Logger

	// sink receives ChannelMsg and DebugEventMsg; set before Start, nil
	// in headless mode.
	sink func(tea.Msg)
}

// SetSink routes hop and debug-passthrough notifications into the UI
// message loop. Must be called before Start.
func (pl *Pipeline) SetSink(send func(tea.Msg)) { pl.sink = send }

// NewPipeline assembles the pipeline without starting anything.
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Fingerprints == nil {
		opts.Fingerprints = fingerprint.Builtin()
	}

	pl := &Pipeline{
		Queue:   detect.NewQueue(config.QueueCapacity),
		Tracker: detect.NewTracker(),
		Alert:   detect.NewAlert(opts.AlertHold),
		Stats:   &capture.Stats{},
		opts:    opts,
		logger:  logger,
	}

	var radio hopper.Radio = capture.DemoRadio{}
	if !opts.Demo {
		radio = capture.NewIWRadio(opts.Iface)
	}
	pl.Hopper = hopper.New(radio, logger, func(ch uint8) {
		if pl.sink != nil {
			pl.sink(ChannelMsg(ch))
		}
	})

	pl.Handler = capture.NewWiFiHandler(pl.Queue, pl.Hopper, pl.Stats)
	pl.Filter = capture.NewBLEFilter(pl.Queue, opts.Fingerprints, func(evt detect.Event) {
		if pl.sink != nil {
			pl.sink(DebugEventMsg(evt))
		}
	})

	return pl
}

// Start launches the hopper, the capture sources and the processing task.
// cb is invoked from the processing goroutine and must not block.
func (pl *Pipeline) Start(ctx context.Context, cb detect.Callbacks) error {
	ctx, pl.cancel = context.WithCancel(ctx)

	pl.processor = detect.NewProcessor(detect.ProcessorConfig{
		Queue:        pl.Queue,
		Tracker:      pl.Tracker,
		Alert:        pl.Alert,
		Fingerprints: pl.opts.Fingerprints,
		Emitter:      pl.opts.Emitter,
		Biaser:       pl.Hopper,
		Counters:     pl.Stats,
		ChannelFn:    pl.Hopper.Current,
		Logger:       pl.logger,
		Callbacks:    cb,
	})

	pl.Hopper.Start(ctx)

	if pl.opts.Demo {
		pl.demo = capture.NewDemoSource(pl.Handler, pl.Filter, pl.Hopper)
		pl.demo.Start(ctx)
	} else {
		started := false

		if capture.Available() {
			pl.iw = capture.NewIWSource(pl.Queue, pl.Stats, pl.Hopper, pl.logger,
				pl.opts.Iface, config.WiFiScanInterval)
			pl.iw.Start(ctx)
			started = true
		} else {
			pl.logger.Warn("no WiFi scan tool found (nmcli or iw); WiFi capture disabled")
		}

		resolver := capture.NewNameResolver(pl.Queue)
		if resolver.Available() {
			pl.resolver = resolver
		}

		pl.ble = capture.NewBLEScanner(pl.Filter, pl.opts.Fingerprints, pl.resolver, pl.logger)
		if err := pl.ble.Start(); err != nil {
			pl.logger.Warn("BLE capture disabled", zap.Error(err))
			pl.ble = nil
		} else {
			started = true
		}

		if !started {
			pl.cancel()
			return ErrNoCaptureSource
		}
	}

	go func() {
		if err := pl.processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			pl.logger.Error("processor stopped", zap.Error(err))
			if pl.sink != nil {
				pl.sink(PipelineErrorMsg{Err: err})
			}
		}
	}()

	return nil
}

// Stop halts all sources and the processing task.
func (pl *Pipeline) Stop() {
	if pl.cancel != nil {
		pl.cancel()
	}
	if pl.demo != nil {
		pl.demo.Stop()
	}
	if pl.iw != nil {
		pl.iw.Stop()
	}
	if pl.ble != nil {
		pl.ble.Stop()
	}
	if pl.resolver != nil {
		pl.resolver.Stop()
	}
}
