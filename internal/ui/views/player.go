package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/golang_music_sync/api"
	"github.com/jscyril/golang_music_sync/internal/ui/components"
)

// ParamLine is a parameter as displayed
type ParamLine struct {
	Name    string
	Value   string
	Ramping bool
}

// PlayerView displays the synchronizer state of one track
type PlayerView struct {
	Width       int
	Height      int
	Info        api.TrackInfo
	Status      api.TrackStatus
	Pending     bool
	Section     string
	Params      []ParamLine
	ProgressBar components.ProgressBar
	Markers     components.MarkerList

	// Styles
	TitleStyle    lipgloss.Style
	ArtistStyle   lipgloss.Style
	StatusStyle   lipgloss.Style
	PendingStyle  lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width, height int) PlayerView {
	return PlayerView{
		Width:       width,
		Height:      height,
		ProgressBar: components.NewProgressBar(width - 4),
		Markers:     components.NewMarkerList(height/2, width-4),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		ArtistStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		PendingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2),
	}
}

// SetStatus updates the displayed track status
func (v *PlayerView) SetStatus(st api.TrackStatus, pending bool) {
	v.Status = st
	v.Pending = pending
	v.ProgressBar.SetProgress(st.Position, st.Length)
	v.ProgressBar.SetLoop(st.LoopStart, st.LoopEnd)

	marks := make([]float64, len(st.Markers))
	for i, m := range st.Markers {
		marks[i] = m.Position / 1000
	}
	v.ProgressBar.Markers = marks
	v.Markers.SetItems(st.Markers, st.Cursor)
}

// Update handles messages
func (v PlayerView) Update(msg tea.Msg) (PlayerView, tea.Cmd) {
	var cmd tea.Cmd
	v.Markers, cmd = v.Markers.Update(msg)
	return v, cmd
}

// View renders the player view
func (v PlayerView) View() string {
	var sb strings.Builder

	statusIcon := "▶"
	if v.Status.Paused {
		statusIcon = "⏸"
	}
	sb.WriteString(v.StatusStyle.Render(statusIcon + " "))
	sb.WriteString(v.TitleStyle.Render(v.Info.Title))
	if v.Info.Artist != "" {
		sb.WriteString("  ")
		sb.WriteString(v.ArtistStyle.Render(v.Info.Artist))
	}
	sb.WriteString("\n\n")

	sb.WriteString(v.ProgressBar.View())
	sb.WriteString("\n")

	var modes []string
	if v.Status.Looping {
		modes = append(modes, fmt.Sprintf("🔁 Loop %s-%s",
			components.FormatSeconds(v.Status.LoopStart), components.FormatSeconds(v.Status.LoopEnd)))
	} else {
		modes = append(modes, "One-shot")
	}
	if v.Section != "" {
		modes = append(modes, "Section: "+v.Section)
	}
	modes = append(modes, fmt.Sprintf("Clock: %d", v.Status.Clock))
	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(strings.Join(modes, " | ")))
	sb.WriteString("\n")

	if v.Pending && v.Status.Transition != nil {
		dest := "?"
		if d := v.Status.Transition.Destination; d != nil {
			dest = d.Name
		}
		sb.WriteString(v.PendingStyle.Render("⇢ transition to " + dest + " pending"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(v.Markers.View())
	sb.WriteString("\n")

	if len(v.Params) > 0 {
		sb.WriteString("\n")
		for _, p := range v.Params {
			line := fmt.Sprintf("%-16s %s", p.Name, p.Value)
			if p.Ramping {
				line += " ~"
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	sb.WriteString(v.ControlsStyle.Render(
		"[Space] Pause  [←/→] Seek  [m] Mark  [x] Erase  [l] Loop  [n] Next section  [1-9] Preset  [s] Save  [q] Quit",
	))

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}
