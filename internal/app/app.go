package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JarvisLatteier/flock-sentry/internal/config"
	"github.com/JarvisLatteier/flock-sentry/internal/detect"
	"github.com/JarvisLatteier/flock-sentry/internal/emit"
	"github.com/JarvisLatteier/flock-sentry/internal/ui"
)

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	pl *Pipeline

	// RSSI history for the detail overlay, sampled on ticks
	histMAC  string
	hist     *RSSIRing
	histLast time.Time
}

// AppModel is the root Bubble Tea model for Flock Sentry.
type AppModel struct {
	width  int
	height int

	source    string
	cursor    int
	detailMAC string // non-empty while the detail overlay is up
	debugOn   bool

	flashOn   bool
	lastFlash time.Time

	alertState detect.AlertState
	alertRSSI  int8
	stats      emit.Stats
	records    []emit.Record // newest first
	detections int           // lifetime count, survives [C]lear
	lastDebug  string

	// Cached tracker snapshot, refreshed on ticks when uncontended
	devices []detect.Device

	shared *shared
}

// New creates a new AppModel over an assembled (not yet started) pipeline.
func New(pl *Pipeline, source string) AppModel {
	return AppModel{
		source:    source,
		alertRSSI: -100,
		flashOn:   true,
		shared:    &shared{pl: pl},
	}
}

// StartPipeline starts capture and processing with callbacks forwarding
// into the program's message loop. Must be called before p.Run().
func (m *AppModel) StartPipeline(ctx context.Context, p *tea.Program) error {
	cb := detect.Callbacks{
		OnDetection: func(r emit.Record) { p.Send(DetectionMsg(r)) },
		OnAlert: func(s detect.AlertState, rssi int8) {
			p.Send(AlertMsg{State: s, RSSI: rssi})
		},
		OnStats: func(s emit.Stats) { p.Send(StatsMsg(s)) },
	}
	return m.shared.pl.Start(ctx, cb)
}

func (m AppModel) Init() tea.Cmd {
	return tickCmd()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case TickMsg:
		// Skip-on-contention reads: a busy pipeline costs a stale frame,
		// never a stall.
		if devs, ok := m.shared.pl.Tracker.TrySnapshot(); ok {
			m.devices = devs
		}
		if state, rssi, ok := m.shared.pl.Alert.TryStatus(); ok {
			m.alertState = state
			m.alertRSSI = rssi
		}
		m.advanceFlash(time.Time(msg))
		m.sampleHistory()
		return m, tickCmd()

	case DetectionMsg:
		m.records = append([]emit.Record{emit.Record(msg)}, m.records...)
		if len(m.records) > config.MaxDetectionRows {
			m.records = m.records[:config.MaxDetectionRows]
		}
		m.detections++
		return m, nil

	case AlertMsg:
		m.alertState = msg.State
		m.alertRSSI = msg.RSSI
		if msg.State != detect.StateDetected {
			m.flashOn = true
		}
		return m, nil

	case StatsMsg:
		m.stats = emit.Stats(msg)
		return m, nil

	case ChannelMsg:
		m.stats.Channel = int(msg)
		return m, nil

	case DebugEventMsg:
		evt := detect.Event(msg)
		name := evt.Name
		if name == "" {
			name = "(no name)"
		}
		m.lastDebug = fmt.Sprintf("%s %s %ddBm", evt.MAC.String(), name, evt.RSSI)
		return m, nil

	case PipelineErrorMsg:
		m.shared.pl.Stop()
		return m, tea.Quit
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.shared.pl.Stop()
		return m, tea.Quit

	case "d", "D":
		m.debugOn = !m.debugOn
		m.shared.pl.Filter.SetDebug(m.debugOn)
		if !m.debugOn {
			m.lastDebug = ""
		}

	case "c", "C":
		m.records = nil
		m.cursor = 0
		m.detailMAC = ""

	case "r", "R":
		m.shared.pl.Alert.Reset()
		m.alertState = detect.StateScanning
		m.alertRSSI = -100
		m.flashOn = true

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}

	case "home":
		m.cursor = 0

	case "end":
		if len(m.records) > 0 {
			m.cursor = len(m.records) - 1
		}

	case "enter":
		if m.cursor < len(m.records) {
			m.detailMAC = m.records[m.cursor].MAC
			m.shared.histMAC = ""
		}

	case "esc":
		m.detailMAC = ""
	}

	return m, nil
}

// handleMouse scrolls the detection list with the wheel and selects the
// entry under a left click.
func (m AppModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case msg.Button == tea.MouseButtonWheelDown:
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if idx, ok := m.recordAt(msg.X, msg.Y); ok {
			m.cursor = idx
			m.detailMAC = m.records[idx].MAC
			m.shared.histMAC = ""
		}
	}

	return m, nil
}

// recordAt maps a terminal cell to the detection entry rendered there,
// mirroring the list's viewport math.
func (m AppModel) recordAt(x, y int) (int, bool) {
	if m.width == 0 || len(m.records) == 0 {
		return 0, false
	}
	leftW, _ := m.splitWidths()
	if x < leftW || x >= m.width {
		return 0, false
	}

	headerCount := 2
	if m.lastDebug != "" {
		headerCount++
	}
	innerH := m.bodyHeight() - 2
	if innerH < headerCount+1 {
		innerH = headerCount + 1
	}
	rowSpace := innerH - headerCount
	if rowSpace < 1 {
		rowSpace = 1
	}

	const linesPerEntry = 4
	maxVisible := rowSpace / linesPerEntry
	if maxVisible < 1 {
		maxVisible = 1
	}
	viewStart := 0
	if m.cursor >= maxVisible {
		viewStart = m.cursor - maxVisible + 1
	}

	// Menu bar, top border, then the fixed header lines.
	top := 1 + 1 + headerCount
	row := y - top
	if row < 0 || row >= rowSpace {
		return 0, false
	}
	if row%linesPerEntry == linesPerEntry-1 {
		return 0, false // spacer between entries
	}
	idx := viewStart + row/linesPerEntry
	if idx >= len(m.records) {
		return 0, false
	}
	return idx, true
}

// advanceFlash toggles the DETECTED flash at the RSSI-derived period.
func (m *AppModel) advanceFlash(now time.Time) {
	if m.alertState != detect.StateDetected {
		return
	}
	if now.Sub(m.lastFlash) >= detect.FlashInterval(m.alertRSSI) {
		m.flashOn = !m.flashOn
		m.lastFlash = now
	}
}

// sampleHistory pushes the selected device's RSSI into the sparkline ring
// whenever the tracker has seen it again since the last sample.
func (m *AppModel) sampleHistory() {
	if m.detailMAC == "" {
		return
	}
	dev, ok := m.findDevice(m.detailMAC)
	if !ok {
		return
	}
	if m.shared.histMAC != m.detailMAC {
		m.shared.histMAC = m.detailMAC
		m.shared.hist = NewRSSIRing(config.RSSIHistorySize)
		m.shared.histLast = time.Time{}
	}
	if dev.LastSeen.After(m.shared.histLast) {
		m.shared.hist.Push(float64(dev.RSSILast))
		m.shared.histLast = dev.LastSeen
	}
}

// findDevice looks up a MAC in the cached tracker snapshot.
func (m *AppModel) findDevice(mac string) (detect.Device, bool) {
	for i := range m.devices {
		if m.devices[i].MAC.String() == mac {
			return m.devices[i], true
		}
	}
	return detect.Device{}, false
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing Flock Sentry..."
	}

	bodyH := m.bodyHeight()
	leftW, listW := m.splitWidths()

	menuBar := ui.RenderMenuBar(m.width, m.source, m.alertState, m.flashOn)

	leftPanel := m.renderLeftPanel(leftW, bodyH)
	detectionList := ui.RenderDetectionList(m.records, listW, bodyH, m.cursor, m.lastDebug)

	statusBar := ui.RenderStatusBar(m.width, m.currentStats(), m.detections)

	return ui.ComposeLayout(menuBar, leftPanel, detectionList, statusBar, m.width)
}

// splitWidths divides the body row between the left panel and the
// detection list.
func (m AppModel) splitWidths() (leftW, listW int) {
	leftW = m.width / 2
	if leftW < 40 {
		leftW = 40
	}
	listW = m.width - leftW
	if listW < 30 {
		listW = 30
		leftW = m.width - listW
	}
	return leftW, listW
}

// bodyHeight is the height left between the menu and status bars.
func (m AppModel) bodyHeight() int {
	h := m.height - 2
	if h < 5 {
		h = 5
	}
	return h
}

func (m AppModel) renderLeftPanel(w, h int) string {
	if m.detailMAC != "" {
		if dev, ok := m.findDevice(m.detailMAC); ok {
			var hist []float64
			if m.shared.hist != nil {
				hist = m.shared.hist.Values()
			}
			return ui.RenderDetailPanel(&dev, w, h, hist, time.Now())
		}
	}

	hop := m.shared.pl.Hopper
	view := ui.ChannelView{
		Current: hop.Current(),
		Sticky:  hop.Sticky(),
	}
	for ch := uint8(1); ch <= config.MaxChannel; ch++ {
		view.Activity[ch] = hop.Activity(ch)
		view.Detections[ch] = hop.Detections(ch)
	}
	return ui.RenderChannelPanel(w, h, view, m.alertState, m.alertRSSI, m.flashOn)
}

// currentStats fills in the live counters between periodic stats records.
func (m AppModel) currentStats() emit.Stats {
	s := m.stats
	s.Frames = m.shared.pl.Stats.Frames()
	s.SSIDs = m.shared.pl.Stats.SSIDs()
	s.Channel = int(m.shared.pl.Hopper.Current())
	s.QueueDepth = m.shared.pl.Queue.Len()
	s.Dropped = m.shared.pl.Queue.Dropped()
	return s
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
