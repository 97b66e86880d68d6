package capture

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/hopper"
)

// IWSource produces beacon events from periodic access point scans on
// hosts without a monitor-mode capture path. Prefers nmcli (no root
// needed), falls back to iw (needs root). Scan results enter the same
// queue the frame handler feeds, so the pipeline behaves identically.
type IWSource struct {
	queue    *detect.Queue
	stats    *Stats
	hop      *hopper.Hopper // may be nil
	logger   *zap.Logger
	iface    string
	interval time.Duration
	useNmcli bool
	cancel   context.CancelFunc
}

// NewIWSource creates a scan source. If iface is empty it is auto-detected.
func NewIWSource(queue *detect.Queue, stats *Stats, hop *hopper.Hopper, logger *zap.Logger, iface string, interval time.Duration) *IWSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stats == nil {
		stats = &Stats{}
	}
	useNmcli := nmcliAvailable()
	if iface == "" && !useNmcli {
		iface = detectWiFiInterface()
	}
	return &IWSource{
		queue:    queue,
		stats:    stats,
		hop:      hop,
		logger:   logger,
		iface:    iface,
		interval: interval,
		useNmcli: useNmcli,
	}
}

// Available reports whether a usable scan tool exists on this host.
func Available() bool {
	return nmcliAvailable() || iwAvailable()
}

// Start begins periodic scans in a goroutine.
func (s *IWSource) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		for {
			s.scan()
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.interval):
			}
		}
	}()
}

// Stop halts the scan loop.
func (s *IWSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

type apResult struct {
	mac     string
	ssid    string
	rssi    int
	channel int
}

func (s *IWSource) scan() {
	var results []apResult
	if s.useNmcli {
		results = s.scanNmcli()
	} else {
		results = s.scanIW()
	}

	now := time.Now()
	for _, r := range results {
		mac, err := detect.ParseMAC(strings.ToLower(r.mac))
		if err != nil {
			continue
		}

		s.stats.frames.Add(1)
		ch := uint8(0)
		if r.channel >= 1 && r.channel <= 255 {
			ch = uint8(r.channel)
		}
		if s.hop != nil {
			s.hop.RecordFrame(ch)
		}
		if r.ssid != "" {
			s.stats.ssids.Add(1)
		}

		s.queue.Push(detect.Event{
			MAC:     mac,
			Name:    truncateSSID(r.ssid),
			RSSI:    clampRSSI(r.rssi),
			Channel: ch,
			Type:    detect.EventBeacon,
			At:      now,
		})
	}
}

// scanNmcli uses cached NetworkManager results (it rescans automatically).
func (s *IWSource) scanNmcli() []apResult {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "nmcli", "-t", "-f", "BSSID,SSID,CHAN,SIGNAL", "dev", "wifi", "list")
	out, err := cmd.Output()
	if err != nil {
		s.logger.Debug("nmcli scan failed", zap.Error(err))
		return nil
	}
	return parseNmcliScan(string(out))
}

// parseNmcliScan parses nmcli terse output (BSSID:SSID:CHAN:SIGNAL per
// line; literal colons in values are escaped as \:).
func parseNmcliScan(output string) []apResult {
	var results []apResult

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		const placeholder = "\x00"
		escaped := strings.ReplaceAll(line, `\:`, placeholder)
		parts := strings.Split(escaped, ":")
		for i := range parts {
			parts[i] = strings.ReplaceAll(parts[i], placeholder, ":")
		}
		if len(parts) < 4 {
			continue
		}

		r := apResult{
			mac:  strings.TrimSpace(parts[0]),
			ssid: strings.TrimSpace(parts[1]),
		}
		r.channel, _ = strconv.Atoi(strings.TrimSpace(parts[2]))

		// nmcli SIGNAL is a 0-100 percentage; map to approximate dBm
		// (100% ~ -30 dBm, 0% ~ -100 dBm).
		r.rssi = -80
		if sig, err := strconv.Atoi(strings.TrimSpace(parts[3])); err == nil {
			r.rssi = -100 + sig*70/100
		}

		results = append(results, r)
	}
	return results
}

func (s *IWSource) scanIW() []apResult {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "iw", "dev", s.iface, "scan")
	out, err := cmd.Output()
	if err != nil {
		s.logger.Debug("iw scan failed", zap.Error(err))
		return nil
	}
	return parseIWScan(string(out))
}

// parseIWScan parses the output of `iw dev <iface> scan`.
func parseIWScan(output string) []apResult {
	var results []apResult
	var current *apResult

	flush := func() {
		if current != nil && current.mac != "" {
			results = append(results, *current)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		// New BSS block: "BSS aa:bb:cc:dd:ee:ff(on wlan0)"
		if strings.HasPrefix(line, "BSS ") {
			flush()
			mac := strings.TrimPrefix(line, "BSS ")
			if idx := strings.IndexByte(mac, '('); idx >= 0 {
				mac = mac[:idx]
			}
			current = &apResult{mac: strings.TrimSpace(mac), rssi: -80}
			continue
		}
		if current == nil {
			continue
		}

		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimPrefix(trimmed, "* ")
		switch {
		case strings.HasPrefix(trimmed, "SSID: "):
			current.ssid = strings.TrimPrefix(trimmed, "SSID: ")
		case strings.HasPrefix(trimmed, "signal: "):
			sigStr := strings.TrimSuffix(strings.TrimPrefix(trimmed, "signal: "), " dBm")
			if v, err := strconv.ParseFloat(strings.TrimSpace(sigStr), 64); err == nil {
				current.rssi = int(v)
			}
		case strings.HasPrefix(trimmed, "DS Parameter set: channel "):
			if v, err := strconv.Atoi(strings.TrimPrefix(trimmed, "DS Parameter set: channel ")); err == nil {
				current.channel = v
			}
		case strings.HasPrefix(trimmed, "primary channel: ") && current.channel == 0:
			if v, err := strconv.Atoi(strings.TrimPrefix(trimmed, "primary channel: ")); err == nil {
				current.channel = v
			}
		}
	}
	flush()
	return results
}

// IWRadio applies channel hops with `iw dev <iface> set channel`. Only
// effective when the interface is in monitor mode; failures are reported
// to the hopper and otherwise harmless.
type IWRadio struct {
	iface string
}

// NewIWRadio creates a radio for the given interface.
func NewIWRadio(iface string) *IWRadio {
	return &IWRadio{iface: iface}
}

// SetChannel switches the interface to ch.
func (r *IWRadio) SetChannel(ch uint8) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "iw", "dev", r.iface, "set", "channel", strconv.Itoa(int(ch))).Run()
}

func nmcliAvailable() bool {
	_, err := exec.LookPath("nmcli")
	return err == nil
}

func iwAvailable() bool {
	_, err := exec.LookPath("iw")
	return err == nil
}

// detectWiFiInterface finds the first wireless interface via `iw dev`.
func detectWiFiInterface() string {
	out, err := exec.Command("iw", "dev").Output()
	if err != nil {
		return "wlan0"
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "Interface ") {
			return strings.TrimPrefix(line, "Interface ")
		}
	}
	return "wlan0"
}

func truncateSSID(s string) string {
	if len(s) > maxSSIDLen {
		return s[:maxSSIDLen]
	}
	return s
}

func clampRSSI(v int) int8 {
	if v < -127 {
		return -127
	}
	if v > 0 {
		return 0
	}
	return int8(v)
}
