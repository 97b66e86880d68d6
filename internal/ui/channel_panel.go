package ui

import (
	"fmt"
	"strings"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
	"github.com/JarvisLatteier/flock-sentry/internal/detect"
)

// ChannelView is the scheduler state the panel renders.
type ChannelView struct {
	Current    uint8
	Sticky     bool
	Activity   [config.MaxChannel + 1]uint32
	Detections [config.MaxChannel + 1]uint32
}

// RenderChannelPanel renders the channel activity chart with the alert
// banner on top. Bars show frame activity in the current dwell; a '*'
// column marks channels with lifetime detections.
func RenderChannelPanel(width, height int, v ChannelView, state detect.AlertState, rssi int8, flashOn bool) string {
	innerW := width - 4
	if innerW < 24 {
		innerW = 24
	}

	var lines []string
	lines = append(lines, StylePanelTitle.Render("CHANNELS"))
	lines = append(lines, StyleSeparator.Render(strings.Repeat("-", innerW)))
	lines = append(lines, renderAlertBanner(innerW, state, rssi, flashOn))
	lines = append(lines, "")

	var maxActivity uint32 = 1
	for ch := 1; ch <= config.MaxChannel; ch++ {
		if v.Activity[ch] > maxActivity {
			maxActivity = v.Activity[ch]
		}
	}

	barW := innerW - 16
	if barW < 8 {
		barW = 8
	}

	for ch := uint8(1); ch <= config.MaxChannel; ch++ {
		filled := int(v.Activity[ch]) * barW / int(maxActivity)
		if filled > barW {
			filled = barW
		}
		bar := strings.Repeat("#", filled) + strings.Repeat(".", barW-filled)

		marker := "  "
		label := fmt.Sprintf("CH%2d", ch)
		sty := StyleChannelBar
		if ch == v.Current {
			marker = "> "
			sty = StyleChannelActive
			if v.Sticky {
				sty = StyleChannelSticky
			}
		}

		det := "    "
		if v.Detections[ch] > 0 {
			det = StyleThreatHigh.Render(fmt.Sprintf(" *%-2d", v.Detections[ch]))
		}

		lines = append(lines, marker+sty.Render(fmt.Sprintf("%s %s %3d", label, bar, v.Activity[ch]))+det)
	}

	if v.Sticky {
		lines = append(lines, "")
		lines = append(lines, StyleChannelSticky.Render(" sticky: holding channel after detection"))
	}

	content := strings.Join(lines, "\n")
	return clampPanel(StylePanelBorder.Width(width-2).Height(height-2).Render(content), height)
}

func renderAlertBanner(innerW int, state detect.AlertState, rssi int8, flashOn bool) string {
	switch state {
	case detect.StateDetected:
		text := fmt.Sprintf(" !! SURVEILLANCE DEVICE DETECTED  (%d dBm) !! ", rssi)
		if !flashOn {
			return strings.Repeat(" ", min(len(text), innerW))
		}
		return StyleThreatHigh.Render(text)
	case detect.StateAlert:
		return StyleStatusAlert.Render(" ALERT: recent detection, signal quiet ")
	default:
		return StyleStatusScanning.Render(" scanning... ")
	}
}

// clampPanel hard-limits rendered output to exactly height lines.
// lipgloss Height() only sets a minimum; it won't truncate overflow.
func clampPanel(rendered string, height int) string {
	lines := strings.Split(rendered, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
