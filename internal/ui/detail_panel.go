package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/JarvisLatteier/flock-sentry/internal/detect"
)

// RenderDetailPanel renders the tracked-device detail overlay that replaces
// the channel panel when a detection row is selected.
func RenderDetailPanel(d *detect.Device, width, height int, rssiHistory []float64, now time.Time) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("DEVICE DETAIL")
	escHint := StyleHelp.Render("[ESC]")
	titleLine := title + strings.Repeat(" ", max(0, innerW-lipgloss.Width(title)-lipgloss.Width(escHint))) + escHint

	sep := StyleSeparator.Render(strings.Repeat("-", innerW))

	lines := []string{titleLine, sep, ""}

	labelSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	valSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)

	interval := "n/a"
	if avg, ok := d.AvgInterval(); ok {
		interval = fmt.Sprintf("%d ms", avg.Milliseconds())
	}

	fields := []struct{ label, value string }{
		{"MAC", d.MAC.String()},
		{"Type", d.LastType.String()},
		{"Channel", fmt.Sprintf("%d", d.LastChannel)},
		{"Hits", fmt.Sprintf("%d", d.HitCount)},
		{"RSSI", fmt.Sprintf("%d dBm (min %d / max %d / avg %d)", d.RSSILast, d.RSSIMin, d.RSSIMax, d.RSSIAvg())},
		{"Trend", d.SignalTrend()},
		{"Interval", interval},
		{"First", formatSeen(d.FirstSeen, now)},
		{"Last", formatSeen(d.LastSeen, now)},
	}

	for _, f := range fields {
		label := labelSty.Render(fmt.Sprintf("  %-10s", f.label))
		value := valSty.Render(f.value)
		lines = append(lines, label+value)
	}

	lines = append(lines, "")

	barWidth := innerW - 22
	if barWidth < 10 {
		barWidth = 10
	}
	bar := renderSignalBar(float64(d.RSSILast), barWidth)
	rssiLabel := valSty.Render(fmt.Sprintf(" %ddBm", d.RSSILast))
	lines = append(lines, labelSty.Render("  Signal ")+bar+rssiLabel)

	lines = append(lines, "")

	if len(rssiHistory) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		lines = append(lines, labelSty.Render("  RSSI History:"))
		spark := renderSparkline(rssiHistory, sparkW)
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(spark))
	}

	for len(lines) < height-2 {
		lines = append(lines, "")
	}

	content := strings.Join(lines, "\n")
	return clampPanel(StylePanelActive.Width(width-2).Height(height-2).Render(content), height)
}

func renderSignalBar(rssi float64, width int) string {
	// Map RSSI -100..-30 to 0..width filled bars
	ratio := (rssi + 100.0) / 70.0
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(math.Round(ratio * float64(width)))

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	color := ColorGreen
	if rssi > -50 {
		color = ColorThreatHigh
	} else if rssi > -70 {
		color = ColorWarning
	}
	filledPart := lipgloss.NewStyle().Foreground(color).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	rng := maxV - minV
	if rng < 1 {
		rng = 1
	}

	start := 0
	if len(values) > width {
		start = len(values) - width
	}

	var sb strings.Builder
	for i := start; i < len(values); i++ {
		idx := int((values[i] - minV) / rng * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		sb.WriteByte(chars[idx])
	}

	return sb.String()
}

func formatSeen(t, now time.Time) string {
	d := now.Sub(t)
	if d < time.Second {
		return "now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm ago", int(d.Minutes()))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
