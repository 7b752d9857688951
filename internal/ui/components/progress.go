package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar shows the playhead over the track with the loop region and
// marker positions. All values are in seconds.
type ProgressBar struct {
	Width     int
	Current   float64
	Total     float64
	LoopStart float64
	LoopEnd   float64
	Markers   []float64

	BarChar    string
	EmptyChar  string
	MarkerChar string
	ShowTime   bool

	Style       lipgloss.Style
	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
	LoopStyle   lipgloss.Style
	MarkerStyle lipgloss.Style
}

// NewProgressBar creates a new progress bar
func NewProgressBar(width int) ProgressBar {
	return ProgressBar{
		Width:       width,
		BarChar:     "█",
		EmptyChar:   "░",
		MarkerChar:  "│",
		ShowTime:    true,
		Style:       lipgloss.NewStyle(),
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		LoopStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
		MarkerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// Update handles messages for the progress bar
func (p ProgressBar) Update(msg tea.Msg) (ProgressBar, tea.Cmd) {
	return p, nil
}

// SetProgress sets the current position
func (p *ProgressBar) SetProgress(current, total float64) {
	p.Current = current
	p.Total = total
}

// SetLoop sets the loop region
func (p *ProgressBar) SetLoop(start, end float64) {
	p.LoopStart = start
	p.LoopEnd = end
}

// barWidth leaves room for the time display
func (p ProgressBar) barWidth() int {
	w := p.Width - 14
	if w < 10 {
		w = 10
	}
	return w
}

// column maps seconds to a bar column
func (p ProgressBar) column(seconds float64, width int) int {
	if p.Total <= 0 {
		return 0
	}
	c := int(float64(width) * seconds / p.Total)
	if c < 0 {
		return 0
	}
	if c >= width {
		return width - 1
	}
	return c
}

// View renders the progress bar
func (p ProgressBar) View() string {
	var sb strings.Builder

	width := p.barWidth()
	filled := 0
	if p.Total > 0 {
		filled = int(float64(width) * p.Current / p.Total)
		if filled > width {
			filled = width
		}
	}

	marks := make(map[int]bool, len(p.Markers))
	for _, m := range p.Markers {
		marks[p.column(m, width)] = true
	}
	loopFrom, loopTo := p.column(p.LoopStart, width), p.column(p.LoopEnd, width)
	partial := p.LoopStart > 0 || (p.LoopEnd > 0 && p.LoopEnd < p.Total)

	for i := 0; i < width; i++ {
		switch {
		case marks[i]:
			sb.WriteString(p.MarkerStyle.Render(p.MarkerChar))
		case i < filled:
			sb.WriteString(p.FilledStyle.Render(p.BarChar))
		case partial && i >= loopFrom && i <= loopTo:
			sb.WriteString(p.LoopStyle.Render(p.EmptyChar))
		default:
			sb.WriteString(p.EmptyStyle.Render(p.EmptyChar))
		}
	}

	// Add time display
	if p.ShowTime {
		sb.WriteString(" ")
		sb.WriteString(FormatSeconds(p.Current))
		sb.WriteString("/")
		sb.WriteString(FormatSeconds(p.Total))
	}

	return p.Style.Render(sb.String())
}

// FormatSeconds formats seconds as MM:SS
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
