package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/JarvisLatteier/flock-sentry/internal/emit"
)

// RenderStatusBar renders the bottom diagnostics bar.
func RenderStatusBar(width int, s emit.Stats, detections int) string {
	left := StyleStatusScanning.Render(fmt.Sprintf("[CH %d]", s.Channel))

	info := fmt.Sprintf(" Frames: %d  SSIDs: %d  Queue: %d  Proc: %d  Drop: %d  Tracked: %d/64  Coll: %d  Hits: %d",
		s.Frames, s.SSIDs, s.QueueDepth, s.Processed, s.Dropped, s.Tracked, s.Collisions, detections)

	content := left + StyleStatusBar.Foreground(ColorGreen).Render(info)

	gap := width - lipgloss.Width(content)
	if gap < 0 {
		gap = 0
	}
	padding := ""
	for i := 0; i < gap; i++ {
		padding += " "
	}

	return StyleStatusBar.Width(width).Render(content + padding)
}
