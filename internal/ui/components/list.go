package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/golang_music_sync/api"
)

// MarkerList is a scrollable list of markers. Cursor is the marker due to
// fire next, Selected the one the user is pointing at.
type MarkerList struct {
	Items         []api.MarkerInfo
	Selected      int
	Cursor        int
	Height        int
	Width         int
	Offset        int
	Title         string
	SelectedStyle lipgloss.Style
	CursorStyle   lipgloss.Style
	NormalStyle   lipgloss.Style
	TitleStyle    lipgloss.Style
}

// NewMarkerList creates a new marker list
func NewMarkerList(height, width int) MarkerList {
	return MarkerList{
		Items:  make([]api.MarkerInfo, 0),
		Height: height,
		Width:  width,
		Title:  "Markers",
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		CursorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
	}
}

// SetItems replaces the markers, keeping the selection in range
func (l *MarkerList) SetItems(items []api.MarkerInfo, cursor int) {
	l.Items = items
	l.Cursor = cursor
	if l.Selected >= len(items) {
		l.Selected = len(items) - 1
	}
	if l.Selected < 0 {
		l.Selected = 0
	}
	l.ensureVisible()
}

// Update handles messages for the marker list
func (l MarkerList) Update(msg tea.Msg) (MarkerList, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home":
			l.Selected = 0
			l.Offset = 0
		case "end":
			if len(l.Items) > 0 {
				l.Selected = len(l.Items) - 1
				l.ensureVisible()
			}
		}
	}
	return l, nil
}

// MoveUp moves selection up
func (l *MarkerList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
		l.ensureVisible()
	}
}

// MoveDown moves selection down
func (l *MarkerList) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
		l.ensureVisible()
	}
}

// ensureVisible ensures the selected item is visible
func (l *MarkerList) ensureVisible() {
	visibleHeight := l.Height - 2 // Account for title
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	if l.Selected < l.Offset {
		l.Offset = l.Selected
	} else if l.Selected >= l.Offset+visibleHeight {
		l.Offset = l.Selected - visibleHeight + 1
	}
}

// SelectedIndex returns the selected marker index, or -1 when empty
func (l *MarkerList) SelectedIndex() int {
	if l.Selected >= 0 && l.Selected < len(l.Items) {
		return l.Selected
	}
	return -1
}

// View renders the marker list
func (l MarkerList) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}

	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render("No markers"))
		return sb.String()
	}

	visibleHeight := l.Height - 2
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	end := l.Offset + visibleHeight
	if end > len(l.Items) {
		end = len(l.Items)
	}

	for i := l.Offset; i < end; i++ {
		m := l.Items[i]
		arrow := "  "
		if i == l.Cursor {
			arrow = "▸ "
		}
		line := fmt.Sprintf("%s%3d. %-24s %9.3fs", arrow, i, truncate(m.Name, 24), m.Position/1000)

		switch {
		case i == l.Selected:
			sb.WriteString(l.SelectedStyle.Render(line))
		case i == l.Cursor:
			sb.WriteString(l.CursorStyle.Render(line))
		default:
			sb.WriteString(l.NormalStyle.Render(line))
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(l.Items) > visibleHeight {
		sb.WriteString("\n")
		sb.WriteString(l.NormalStyle.Render(fmt.Sprintf("  [%d/%d]", l.Selected+1, len(l.Items))))
	}

	return sb.String()
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
