package ui

import (
	"fmt"
	"strings"

	"github.com/JarvisLatteier/flock-sentry/internal/emit"
)

// RenderDetectionList renders the scrollable detection feed panel with cursor.
// The title stays fixed at the top; only the entries scroll.
// A non-empty debugLine (the latest non-matching BLE advertisement seen
// while the debug passthrough is on) is pinned under the separator.
func RenderDetectionList(records []emit.Record, width, height int, cursorIndex int, debugLine string) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("DETECTIONS [%d]", len(records)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator}
	if debugLine != "" {
		headerLines = append(headerLines, StyleHelp.Render(truncRaw(" dbg "+debugLine, innerW)))
	}
	headerCount := len(headerLines)

	innerH := height - 2
	if innerH < headerCount+1 {
		innerH = headerCount + 1
	}

	rowSpace := innerH - headerCount
	if rowSpace < 1 {
		rowSpace = 1
	}

	var rows []string
	if len(records) == 0 {
		rows = append(rows, "")
		rows = append(rows, StyleHelp.Render(" No detections..."))
		rows = append(rows, StyleHelp.Render(" Monitoring all channels"))
	} else {
		linesPerEntry := 4 // 3 content + 1 blank
		maxVisible := rowSpace / linesPerEntry
		if maxVisible < 1 {
			maxVisible = 1
		}

		// Viewport start so the cursor row is always visible.
		viewStart := 0
		if cursorIndex >= maxVisible {
			viewStart = cursorIndex - maxVisible + 1
		}

		count := 0
		for i := viewStart; i < len(records); i++ {
			entry := renderDetectionEntry(&records[i], innerW, i == cursorIndex)
			for _, l := range entry {
				if count >= rowSpace {
					break
				}
				rows = append(rows, l)
				count++
			}
			if count >= rowSpace {
				break
			}
		}
	}

	if len(rows) > rowSpace {
		rows = rows[:rowSpace]
	}
	for len(rows) < rowSpace {
		rows = append(rows, "")
	}

	all := make([]string, 0, innerH)
	all = append(all, headerLines...)
	all = append(all, rows...)
	if len(all) > innerH {
		all = all[:innerH]
	}

	content := strings.Join(all, "\n")
	return clampPanel(StylePanelBorder.Width(width-2).Height(innerH).Render(content), height)
}

func renderDetectionEntry(r *emit.Record, maxW int, isCursor bool) []string {
	label := r.SSID
	if r.Protocol == "ble" {
		label = r.DeviceName
	}
	if label == "" {
		label = "(no name)"
	}
	labelMax := maxW - 18
	if labelMax < 4 {
		labelMax = 4
	}
	if len(label) > labelMax {
		label = label[:labelMax]
	}

	threat := fmt.Sprintf("T:%d", r.ThreatScore)
	proto := "[WiFi]"
	if r.Protocol == "ble" {
		proto = "[BLE]"
	}

	chExtra := ""
	if r.Channel > 0 {
		chExtra = fmt.Sprintf("  ch%d", r.Channel)
	}

	rawLine1 := fmt.Sprintf("   %s %s %s", label, threat, proto)
	rawLine2 := fmt.Sprintf("     %s", r.MAC)
	rawLine3 := fmt.Sprintf("     %ddBm %s  %s%s", r.RSSI, r.SignalStrength, r.Method, chExtra)

	rawLine1 = truncRaw(rawLine1, maxW)
	rawLine2 = truncRaw(rawLine2, maxW)
	rawLine3 = truncRaw(rawLine3, maxW)

	if isCursor {
		rawLine1 = ">> " + rawLine1[3:]
		return []string{
			StyleCursorLine.Render(rawLine1),
			StyleCursorLine.Render(rawLine2),
			StyleCursorLine.Render(rawLine3),
			"",
		}
	}

	threatSty := StyleThreatMed
	if r.ThreatScore >= 100 {
		threatSty = StyleThreatHigh
	}
	protoSty := StyleProtoWiFi
	if r.Protocol == "ble" {
		protoSty = StyleProtoBLE
	}

	line1 := fmt.Sprintf("   %s %s %s", StyleDeviceName.Render(label), threatSty.Render(threat), protoSty.Render(proto))
	line2 := fmt.Sprintf("     %s", StyleDeviceMAC.Render(r.MAC))
	line3 := fmt.Sprintf("     %s  %s%s",
		StyleDeviceRSSI.Render(fmt.Sprintf("%ddBm %s", r.RSSI, r.SignalStrength)),
		StyleSeparator.Render(r.Method),
		StyleChannelBar.Render(chExtra))

	return []string{line1, line2, line3, ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}
