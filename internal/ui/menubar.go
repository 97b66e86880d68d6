package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
	"github.com/JarvisLatteier/flock-sentry/internal/detect"
)

// RenderMenuBar renders the top menu bar with the alert state on the right.
func RenderMenuBar(width int, source string, state detect.AlertState, flashOn bool) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"D", "ebug"},
		{"C", "lear"},
		{"R", "eset alert"},
		{"Q", "uit"},
	}

	menu := ""
	for _, k := range keys {
		menu += "  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label)
	}

	var status string
	switch state {
	case detect.StateDetected:
		label := "DETECTED"
		if !flashOn {
			label = "        "
		}
		status = StyleStatusDetected.Render(label)
	case detect.StateAlert:
		status = StyleStatusAlert.Render("ALERT")
	default:
		status = StyleStatusScanning.Render("SCANNING")
	}

	sourceInfo := StyleMenuLabel.Render(fmt.Sprintf("Source: %s", source))

	left := StyleMenuKey.Render(title) + menu
	right := status + "  " + sourceInfo + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	padding := ""
	for i := 0; i < gap; i++ {
		padding += " "
	}

	return StyleMenuBar.Width(width).Render(left + padding + right)
}
