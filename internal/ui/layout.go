package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the channel panel and detection feed horizontally,
// with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, leftPanel, detectionList, statusBar string, width int) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, detectionList)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}
