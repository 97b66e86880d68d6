// Package detect implements the detection pipeline: the bounded event
// queue fed by the radio capture callbacks, the single processing task
// that matches events against the fingerprint database, the fixed-capacity
// tracked device table used for deduplication, and the alert state machine.
package detect

import (
	"fmt"
	"time"
)

// EventType tags the radio source and frame kind of a detection event.
type EventType uint8

const (
	EventProbeRequest EventType = iota
	EventBeacon
	EventProbeResponse
	EventBLEMACMatch
	EventBLENameMatch
)

// IsWiFi reports whether the event came from the 802.11 capture path.
func (t EventType) IsWiFi() bool {
	return t == EventProbeRequest || t == EventBeacon || t == EventProbeResponse
}

func (t EventType) String() string {
	switch t {
	case EventProbeRequest:
		return "probe_request"
	case EventBeacon:
		return "beacon"
	case EventProbeResponse:
		return "probe_response"
	case EventBLEMACMatch:
		return "ble_mac_match"
	default:
		return "ble_name_match"
	}
}

// MAC is a raw 6-byte hardware address.
type MAC [6]byte

// String formats the MAC as lowercase colon-hex.
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Prefix returns the first three octets as colon-hex, the form the
// fingerprint database stores vendor prefixes in.
func (m MAC) Prefix() string {
	return fmt.Sprintf("%02x:%02x:%02x", m[0], m[1], m[2])
}

// ParseMAC parses a colon-hex address ("aa:bb:cc:dd:ee:ff").
func ParseMAC(s string) (MAC, error) {
	var m MAC
	n, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x",
		&m[0], &m[1], &m[2], &m[3], &m[4], &m[5])
	if err != nil || n != 6 {
		return MAC{}, fmt.Errorf("invalid MAC address %q", s)
	}
	return m, nil
}

// Event is the transient queue payload built by a capture producer and
// consumed exactly once by the processor. Producers build it on the stack;
// it carries no references into driver-owned memory.
type Event struct {
	MAC     MAC
	Name    string // SSID or BLE advertised name, at most 32 bytes
	RSSI    int8   // dBm; meaningless when NoSignal is set
	Channel uint8  // WiFi channel, 0 for BLE
	Type    EventType
	At      time.Time

	// NoSignal marks events synthesized outside the radio path, such as
	// background name resolutions. They carry no RSSI reading and do not
	// count as a sighting in tracking statistics.
	NoSignal bool
}
