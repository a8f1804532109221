// ABOUTME: Bubbletea model for the module player TUI
// ABOUTME: Shows song info, transport position and per-channel VU bars
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

const (
	vuWidth     = 32
	nameColumns = 2
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))
	vuLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	vuMidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	vuHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	// Song
	format      string
	title       string
	signature   string
	songLength  int
	channels    int
	patterns    int
	sampleNames []string

	// Transport
	state    string
	position int
	row      int
	speed    int
	bpm      int
	vu       []float32

	// Settings
	filter     bool
	loop       bool
	separation string

	showNames bool
	ctrl      *Control

	// Dimensions
	width  int
	height int
}

// StatusMsg updates transport state. Empty or nil fields are left alone.
type StatusMsg struct {
	State      string
	Position   int
	Row        int
	Speed      int
	BPM        int
	VU         []float32
	Filter     *bool
	Loop       *bool
	Separation string
}

// SongMsg replaces the song description
type SongMsg struct {
	Format      string
	Title       string
	Signature   string
	SongLength  int
	Channels    int
	Patterns    int
	SampleNames []string
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case SongMsg:
		m.applySong(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("modplay"))
	b.WriteString("\n")
	b.WriteString(m.renderSong())
	b.WriteString(m.renderTransport())
	b.WriteString(m.renderVU())
	if m.showNames {
		b.WriteString(m.renderNames())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func field(name, value string) string {
	return headerStyle.Render(name+": ") + valueStyle.Render(value) + "\n"
}

// renderSong renders the loaded song's description
func (m Model) renderSong() string {
	if m.format == "" {
		return valueStyle.Render("No song loaded") + "\n\n"
	}

	title := m.title
	if title == "" {
		title = "(untitled)"
	}
	s := field("Title", truncate(title, 48))
	s += field("Format", fmt.Sprintf("%s (%s)", m.format, m.signature))
	s += field("Layout", fmt.Sprintf("%d channels, %d orders, %d patterns", m.channels, m.songLength, m.patterns))
	return s + "\n"
}

// renderTransport renders state and position
func (m Model) renderTransport() string {
	s := field("State", m.state)
	s += field("Position", fmt.Sprintf("order %03d/%03d  row %02d  speed %d  bpm %d",
		m.position, m.songLength, m.row, m.speed, m.bpm))
	s += field("Tone", fmt.Sprintf("filter %s  loop %s  separation %s",
		onOff(m.filter), onOff(m.loop), m.separation))
	return s + "\n"
}

// renderVU renders one bar per channel
func (m Model) renderVU() string {
	if len(m.vu) == 0 {
		return ""
	}
	var b strings.Builder
	for ch, level := range m.vu {
		b.WriteString(fmt.Sprintf("%2d ", ch+1))
		b.WriteString(vuBar(level, vuWidth))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderNames renders sample names in columns
func (m Model) renderNames() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Samples"))
	b.WriteString("\n")
	rows := lo.Chunk(m.sampleNames, nameColumns)
	for i, row := range rows {
		cells := lo.Map(row, func(name string, j int) string {
			return fmt.Sprintf("%02d %-24s", i*nameColumns+j+1, truncate(name, 24))
		})
		b.WriteString(valueStyle.Render(strings.Join(cells, " ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("space:Play/Pause  s:Stop  r:Restart  f:Filter  l:Loop  m:Separation  n:Names  q:Quit") + "\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case " ", "p":
		m.send(ActionTogglePlay)
	case "s":
		m.send(ActionStop)
	case "r":
		m.send(ActionRestart)
	case "f":
		m.filter = !m.filter
		m.send(ActionToggleFilter)
	case "l":
		m.loop = !m.loop
		m.send(ActionToggleLoop)
	case "m":
		m.send(ActionCycleSeparation)
	case "n":
		m.showNames = !m.showNames
	}

	return m, nil
}

// send forwards an action without blocking the UI
func (m Model) send(a Action) {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Actions <- a:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Speed != 0 {
		m.position = msg.Position
		m.row = msg.Row
		m.speed = msg.Speed
		m.bpm = msg.BPM
	}
	if msg.VU != nil {
		m.vu = append(m.vu[:0], msg.VU...)
	}
	if msg.Filter != nil {
		m.filter = *msg.Filter
	}
	if msg.Loop != nil {
		m.loop = *msg.Loop
	}
	if msg.Separation != "" {
		m.separation = msg.Separation
	}
}

// applySong replaces the song description and clears stale meters
func (m *Model) applySong(msg SongMsg) {
	m.format = msg.Format
	m.title = msg.Title
	m.signature = msg.Signature
	m.songLength = msg.SongLength
	m.channels = msg.Channels
	m.patterns = msg.Patterns
	m.sampleNames = msg.SampleNames
	m.vu = nil
}

// Utility functions
func vuBar(level float32, width int) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level*float32(width) + 0.5)
	bar := strings.Repeat("█", filled)

	style := vuLowStyle
	switch {
	case filled > width*7/8:
		style = vuHighStyle
	case filled > width*5/8:
		style = vuMidStyle
	}
	return style.Render(bar) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
