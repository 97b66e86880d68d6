package capture

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/hopper"
)

// BuildBeacon assembles a minimal raw 802.11 beacon frame with the given
// transmitter MAC and SSID element. An empty SSID produces a zero-length
// element (hidden network).
func BuildBeacon(mac detect.MAC, ssid string) []byte {
	return buildMgmtFrame(0x80, mac, ssid, true)
}

// BuildProbeRequest assembles a minimal raw 802.11 probe request frame.
func BuildProbeRequest(mac detect.MAC, ssid string) []byte {
	return buildMgmtFrame(0x40, mac, ssid, false)
}

// BuildProbeResponse assembles a minimal raw 802.11 probe response frame.
func BuildProbeResponse(mac detect.MAC, ssid string) []byte {
	return buildMgmtFrame(0x50, mac, ssid, true)
}

func buildMgmtFrame(fc0 byte, mac detect.MAC, ssid string, fixedFields bool) []byte {
	size := mgmtHeaderLen + 2 + len(ssid)
	if fixedFields {
		size += fixedFieldLen
	}
	frame := make([]byte, size)

	frame[0] = fc0
	copy(frame[10:16], mac[:])

	body := frame[mgmtHeaderLen:]
	if fixedFields {
		body = body[fixedFieldLen:]
	}
	body[0] = 0 // SSID element id
	body[1] = byte(len(ssid))
	copy(body[2:], ssid)

	return frame
}

type mockWiFiDevice struct {
	mac      detect.MAC
	ssid     string
	channel  uint8
	probeReq bool // emits probe requests instead of beacons
	baseRSSI float64
	phase    float64
	rate     float64 // emission probability per tick
}

type mockBLEDevice struct {
	mac      detect.MAC
	name     string
	baseRSSI float64
	phase    float64
}

// DemoSource synthesizes radio traffic so the full pipeline runs without
// hardware: raw management frames go through the real parser and handler,
// BLE advertisements go through the real prefilter. A few devices carry
// Flock fingerprints; the rest are background noise.
type DemoSource struct {
	handler *WiFiHandler
	filter  *BLEFilter
	hop     *hopper.Hopper
	wifi    []mockWiFiDevice
	ble     []mockBLEDevice
	cancel  context.CancelFunc
}

// NewDemoSource creates the demo traffic generator.
func NewDemoSource(handler *WiFiHandler, filter *BLEFilter, hop *hopper.Hopper) *DemoSource {
	s := &DemoSource{handler: handler, filter: filter, hop: hop}

	benign := []struct {
		ssid    string
		channel uint8
	}{
		{"HomeNetwork_2G", 1},
		{"XFINITY-7A3F", 6},
		{"TP-Link_A1B2", 11},
		{"AndroidAP", 3},
		{"CoffeeShop Guest", 9},
		{"NETGEAR55", 6},
	}
	for _, b := range benign {
		s.wifi = append(s.wifi, mockWiFiDevice{
			mac:      randomMAC(),
			ssid:     b.ssid,
			channel:  b.channel,
			baseRSSI: -45 - rand.Float64()*40,
			phase:    rand.Float64() * 2 * math.Pi,
			rate:     0.6,
		})
	}

	// Fingerprint-bearing devices: SSID match, SSID+MAC match, and a
	// hidden-SSID device only findable by MAC prefix.
	s.wifi = append(s.wifi,
		mockWiFiDevice{
			mac:      macWithPrefix(0x58, 0x8e, 0x81),
			ssid:     "Flock-7F2A",
			channel:  6,
			baseRSSI: -55,
			phase:    rand.Float64() * 2 * math.Pi,
			rate:     0.3,
		},
		mockWiFiDevice{
			mac:      macWithPrefix(0xcc, 0xcc, 0xcc),
			ssid:     "FS Ext Battery 0412",
			channel:  11,
			probeReq: true,
			baseRSSI: -65,
			phase:    rand.Float64() * 2 * math.Pi,
			rate:     0.2,
		},
		mockWiFiDevice{
			mac:      macWithPrefix(0x70, 0xc9, 0x4e),
			ssid:     "",
			channel:  4,
			baseRSSI: -75,
			phase:    rand.Float64() * 2 * math.Pi,
			rate:     0.2,
		},
	)

	s.ble = []mockBLEDevice{
		{mac: randomMAC(), name: "AirPods Pro", baseRSSI: -60, phase: rand.Float64() * 2 * math.Pi},
		{mac: randomMAC(), name: "Galaxy Buds", baseRSSI: -70, phase: rand.Float64() * 2 * math.Pi},
		{mac: randomMAC(), name: "", baseRSSI: -80, phase: rand.Float64() * 2 * math.Pi},
		{mac: randomMAC(), name: "Penguin-C4", baseRSSI: -58, phase: rand.Float64() * 2 * math.Pi},
		{mac: macWithPrefix(0xec, 0x1b, 0xbd), name: "", baseRSSI: -66, phase: rand.Float64() * 2 * math.Pi},
	}

	return s
}

// Start begins traffic generation in a goroutine.
func (s *DemoSource) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

func (s *DemoSource) loop(ctx context.Context) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	t := 0.0
	bleCountdown := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t += 0.2
			s.emitWiFi(t)
			if bleCountdown--; bleCountdown <= 0 {
				s.emitBLE(t)
				bleCountdown = 5
			}
		}
	}
}

func (s *DemoSource) emitWiFi(t float64) {
	current := uint8(0)
	if s.hop != nil {
		current = s.hop.Current()
	}
	now := time.Now()

	for i := range s.wifi {
		d := &s.wifi[i]
		// The radio only hears the channel it is parked on.
		if current != 0 && d.channel != current {
			continue
		}
		if rand.Float64() > d.rate {
			continue
		}

		rssi := d.baseRSSI + 5*math.Sin(t*0.5+d.phase) + (rand.Float64()-0.5)*4

		var frame []byte
		if d.probeReq {
			frame = BuildProbeRequest(d.mac, d.ssid)
		} else {
			frame = BuildBeacon(d.mac, d.ssid)
		}
		s.handler.HandleFrame(frame, int8(rssi), d.channel, now)
	}
}

func (s *DemoSource) emitBLE(t float64) {
	now := time.Now()
	for i := range s.ble {
		d := &s.ble[i]
		if rand.Float64() > 0.5 {
			continue
		}
		rssi := d.baseRSSI + 4*math.Sin(t*0.3+d.phase) + (rand.Float64()-0.5)*4
		s.filter.Offer(d.mac, d.name, int8(rssi), now)
	}
}

// Stop halts traffic generation.
func (s *DemoSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// DemoRadio is a no-op Radio for demo mode.
type DemoRadio struct{}

// SetChannel accepts any channel.
func (DemoRadio) SetChannel(ch uint8) error { return nil }

func randomMAC() detect.MAC {
	var m detect.MAC
	for i := range m {
		m[i] = byte(rand.Intn(256))
	}
	// Locally administered, unicast
	m[0] = (m[0] | 0x02) &^ 0x01
	return m
}

func macWithPrefix(a, b, c byte) detect.MAC {
	m := randomMAC()
	m[0], m[1], m[2] = a, b, c
	return m
}
