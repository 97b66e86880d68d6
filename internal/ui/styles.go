package ui

import "github.com/charmbracelet/lipgloss"

// Matrix color palette
var (
	ColorMatrixGreen  = lipgloss.Color("#00FF41")
	ColorGreen        = lipgloss.Color("#00CC33")
	ColorMidGreen     = lipgloss.Color("#008F11")
	ColorDimGreen     = lipgloss.Color("#004A0A")
	ColorProtoWiFi    = lipgloss.Color("#FFCC00")
	ColorProtoBLE     = lipgloss.Color("#00FFAA")
	ColorBorderBright = lipgloss.Color("#00FF41")
	ColorBorderNorm   = lipgloss.Color("#00AA22")
	ColorWarning      = lipgloss.Color("#FFAA00")
	ColorThreatHigh   = lipgloss.Color("#FF3300")
	ColorThreatMed    = lipgloss.Color("#FFAA00")
	ColorAlertOrange  = lipgloss.Color("#FF8800")
)

// Pre-built styles
var (
	StyleMenuBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleMenuKey = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleMenuLabel = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(ColorGreen).
			Padding(0, 1)

	StyleStatusScanning = lipgloss.NewStyle().
				Foreground(ColorMatrixGreen).
				Bold(true)

	StyleStatusDetected = lipgloss.NewStyle().
				Foreground(ColorThreatHigh).
				Bold(true)

	StyleStatusAlert = lipgloss.NewStyle().
				Foreground(ColorAlertOrange).
				Bold(true)

	StylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderNorm)

	StylePanelActive = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderBright)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true).
			Padding(0, 1)

	StyleDeviceName = lipgloss.NewStyle().
			Foreground(ColorMatrixGreen).
			Bold(true)

	StyleDeviceMAC = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleDeviceRSSI = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleProtoWiFi = lipgloss.NewStyle().
			Foreground(ColorProtoWiFi)

	StyleProtoBLE = lipgloss.NewStyle().
			Foreground(ColorProtoBLE)

	StyleThreatHigh = lipgloss.NewStyle().
			Foreground(ColorThreatHigh).
			Bold(true)

	StyleThreatMed = lipgloss.NewStyle().
			Foreground(ColorThreatMed)

	StyleSeparator = lipgloss.NewStyle().
			Foreground(ColorMidGreen)

	StyleChannelBar = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StyleChannelActive = lipgloss.NewStyle().
				Foreground(ColorMatrixGreen).
				Bold(true)

	StyleChannelSticky = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDimGreen)

	StyleCursorLine = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(ColorMatrixGreen).
			Bold(true)
)
