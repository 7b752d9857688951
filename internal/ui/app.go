package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/config"
	"github.com/jscyril/golang_music_sync/internal/ui/views"
)

// eventLogSize is how many recent events the log panel keeps
const eventLogSize = 6

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	session *Session
	cfg     *config.Config

	playerView views.PlayerView
	events     []string
	lastFrame  time.Time
	err        error

	// Styles
	logStyle   lipgloss.Style
	errorStyle lipgloss.Style
}

// FrameMsg drives one synchronizer frame
type FrameMsg time.Time

// NewModel creates a new application model
func NewModel(session *Session, cfg *config.Config) Model {
	m := Model{
		width:   80,
		height:  24,
		session: session,
		cfg:     cfg,
		logStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
	m.playerView = views.NewPlayerView(m.width, m.height-eventLogSize-2)
	m.playerView.Info = session.Info
	m.refresh()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.frameCmd()
}

// frameCmd schedules the next frame
func (m Model) frameCmd() tea.Cmd {
	return tea.Tick(m.cfg.FrameInterval(), func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case FrameMsg:
		now := time.Time(msg)
		delta := m.cfg.FrameInterval()
		if !m.lastFrame.IsZero() {
			delta = now.Sub(m.lastFrame)
		}
		m.lastFrame = now
		for _, ev := range m.session.Frame(delta) {
			m.logEvent(ev)
		}
		m.refresh()
		return m, m.frameCmd()

	case tea.KeyMsg:
		if quit := m.handleKey(msg); quit {
			return m, tea.Quit
		}
		m.session.drainInto(m.logEvent)
		m.refresh()
	}

	return m, nil
}

// handleKey applies a key press and reports whether to quit
func (m *Model) handleKey(msg tea.KeyMsg) bool {
	keys := m.cfg.KeyBindings
	ts := m.session.Sync
	m.err = nil

	switch key := msg.String(); key {
	case keys.Quit, "ctrl+c":
		return true

	case keys.PlayPause:
		if !ts.SetPause(!ts.Paused(), m.cfg.FadeSeconds) {
			m.err = fmt.Errorf("cannot pause during a transition")
		}

	case keys.SeekForward, keys.SeekBack:
		step := m.cfg.SeekStep
		if key == keys.SeekBack {
			step = -step
		}
		if !ts.SetPosition(ts.Position() + step) {
			m.err = fmt.Errorf("cannot seek during a transition")
		}

	case keys.AddMarker:
		name := fmt.Sprintf("mark%d", ts.MarkerCount()+1)
		ts.AddMarker(name, ts.Position())

	case keys.EraseMarker:
		if i := m.playerView.Markers.SelectedIndex(); i >= 0 {
			ts.EraseMarker(api.ByIndex(i))
		}

	case keys.ToggleLoop:
		ts.SetLooping(!ts.Looping())

	case keys.NextSection:
		if !m.session.NextSection() {
			m.err = fmt.Errorf("no section to move to")
		}

	case keys.Save:
		m.err = m.session.Save()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key[0] - '1')
		if !ts.ApplyPreset(api.ByIndex(i), m.cfg.FadeSeconds) {
			m.err = fmt.Errorf("no preset %s", key)
		}

	default:
		m.playerView, _ = m.playerView.Update(msg)
	}
	return false
}

// refresh copies synchronizer state into the views
func (m *Model) refresh() {
	ts := m.session.Sync
	m.playerView.SetStatus(ts.Status(), ts.Pending())
	m.playerView.Section = m.session.SectionName()

	all := ts.Params().All()
	lines := make([]views.ParamLine, len(all))
	for i, p := range all {
		value := fmt.Sprintf("%.3f", p.Value())
		if p.Type() == api.ParamLabeled {
			value = p.Label()
		}
		lines[i] = views.ParamLine{Name: p.Name(), Value: value, Ramping: p.Ramping()}
	}
	m.playerView.Params = lines
}

func (m *Model) logEvent(ev api.Event) {
	m.events = append(m.events, Describe(ev))
	if len(m.events) > eventLogSize {
		m.events = m.events[len(m.events)-eventLogSize:]
	}
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	m.playerView.Width = m.width
	m.playerView.Height = m.height - eventLogSize - 2
	m.playerView.ProgressBar.Width = m.width - 4
	m.playerView.Markers.Width = m.width - 4
	m.playerView.Markers.Height = m.playerView.Height / 2
}

// View renders the UI
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.playerView.View())
	sb.WriteString("\n")

	for _, line := range m.events {
		sb.WriteString(m.logStyle.Render(line))
		sb.WriteString("\n")
	}

	// Error display
	if m.err != nil {
		sb.WriteString(m.errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return sb.String()
}

// Run starts the bubbletea program
func Run(session *Session, cfg *config.Config) error {
	model := NewModel(session, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
