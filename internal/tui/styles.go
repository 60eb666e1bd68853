package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/earth-module/tem-dashboard/internal/state"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3B5B4C")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(30)

	selectedCardStyle = cardStyle.BorderForeground(lipgloss.Color("86"))

	tileStyle = lipgloss.NewStyle().Width(22).Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	highStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	newBadge     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Padding(0, 1).Render("NEW")
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))

	connectionStyles = map[state.Connection]lipgloss.Style{
		state.ConnectionConnected: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		state.ConnectionOffline:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

const barWidth = 24

// bar draws a fill of percent (0..100) across barWidth cells.
func bar(percent float64) string {
	filled := int(percent/100*barWidth + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

func connectionBadge(c state.Connection) string {
	style, ok := connectionStyles[c]
	if !ok {
		style = mutedStyle
	}
	return style.Render("● " + string(c))
}
