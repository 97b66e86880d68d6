package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JarvisLatteier/flock-sentry/internal/app"
	"github.com/JarvisLatteier/flock-sentry/internal/config"
	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/emit"
	"github.com/JarvisLatteier/flock-sentry/internal/fingerprint"
)

var (
	flagDemo         bool
	flagHeadless     bool
	flagIface        string
	flagFingerprints string
	flagAlertHold    time.Duration
	flagVerbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flock-sentry",
		Short: "Flock Sentry - Passive surveillance camera detector for WiFi and BLE",
		Long: `Flock Sentry passively listens for WiFi management traffic and BLE
advertisements, matching them against fingerprints of known surveillance
camera hardware (SSID patterns, MAC OUI prefixes, BLE device names).

New detections are emitted as JSON lines and shown in the terminal UI.

Requires sudo or CAP_NET_ADMIN capability for real radio scanning.
Use --demo flag for demonstration mode without any radio hardware.`,
		RunE: run,
	}

	rootCmd.Flags().BoolVar(&flagDemo, "demo", false, "Run in demo mode with synthetic traffic (no radio required)")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "No UI; JSON detection records to stdout, logs to stderr")
	rootCmd.Flags().StringVar(&flagIface, "iface", "", "WiFi interface to scan (default: auto-detect)")
	rootCmd.Flags().StringVar(&flagFingerprints, "fingerprints", "", "TOML fingerprint database (default: built-in patterns)")
	rootCmd.Flags().DurationVar(&flagAlertHold, "alert-hold", config.DefaultAlertHold, "How long ALERT persists after the last detection; 0 holds until reset")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Debug-level logging (headless mode)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	prints, err := loadFingerprints()
	if err != nil {
		return err
	}

	if flagHeadless {
		return runHeadless(prints)
	}
	return runUI(prints)
}

func loadFingerprints() (*fingerprint.Set, error) {
	if flagFingerprints == "" {
		return fingerprint.Builtin(), nil
	}
	prints, err := fingerprint.Load(flagFingerprints)
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprint database: %w", err)
	}
	return prints, nil
}

func runUI(prints *fingerprint.Set) error {
	// The terminal owns stdout; drop logs and emit nothing.
	pl := app.NewPipeline(app.Options{
		Demo:         flagDemo,
		Iface:        flagIface,
		Fingerprints: prints,
		AlertHold:    flagAlertHold,
		Logger:       zap.NewNop(),
	})

	source := "wifi+ble"
	if flagDemo {
		source = "demo"
	} else if flagIface != "" {
		source = flagIface
	}

	model := app.New(pl, source)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithFPS(config.TargetFPS),
	)
	pl.SetSink(p.Send)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := model.StartPipeline(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
		fmt.Fprintln(os.Stderr, "Radio scanning requires elevated permissions.")
		fmt.Fprintln(os.Stderr, "Try one of:")
		fmt.Fprintln(os.Stderr, "  sudo ./flock-sentry")
		fmt.Fprintln(os.Stderr, "  sudo setcap cap_net_admin+ep ./flock-sentry")
		fmt.Fprintln(os.Stderr, "  ./flock-sentry --demo    (demo mode, no hardware needed)")
		return err
	}
	defer pl.Stop()

	_, err := p.Run()
	return err
}

func runHeadless(prints *fingerprint.Set) error {
	logger, err := newStderrLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pl := app.NewPipeline(app.Options{
		Demo:         flagDemo,
		Iface:        flagIface,
		Fingerprints: prints,
		AlertHold:    flagAlertHold,
		Emitter:      emit.New(os.Stdout),
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cb := detect.Callbacks{
		OnAlert: func(state detect.AlertState, rssi int8) {
			logger.Info("alert state changed",
				zap.String("state", state.String()),
				zap.Int8("rssi", rssi))
		},
	}
	if err := pl.Start(ctx, cb); err != nil {
		return err
	}
	defer pl.Stop()

	ssids, macs, names := prints.Counts()
	logger.Info("scanning",
		zap.Bool("demo", flagDemo),
		zap.Int("ssid_patterns", ssids),
		zap.Int("mac_prefixes", macs),
		zap.Int("name_patterns", names))

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func newStderrLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
