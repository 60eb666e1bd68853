// Package tui renders the dashboard in a terminal and lets the operator
// reassign outputs without a browser.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/dashboard"
	"github.com/earth-module/tem-dashboard/internal/state"
)

const actionTimeout = 10 * time.Second

// Source is implemented by *state.Store.
type Source interface {
	Snapshot() state.Snapshot
	Subscribe() (<-chan state.Snapshot, func())
	Catalog() *catalog.Catalog
}

// Actions is the subset of *service.Service the dashboard drives.
type Actions interface {
	Assign(ctx context.Context, kind catalog.Kind, index, id int) error
	Refresh()
}

type snapshotMsg state.Snapshot

type feedClosedMsg struct{}

type assignDoneMsg struct {
	title string
	label string
	err   error
}

// Model is the bubbletea model. The selected card's option list is browsed
// with a cursor; enter applies it.
type Model struct {
	catalog *catalog.Catalog
	updates <-chan state.Snapshot
	actions Actions
	logger  *slog.Logger

	view     dashboard.View
	selected int
	cursor   int
	status   string
	failed   bool
}

func NewModel(source Source, updates <-chan state.Snapshot, actions Actions, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := Model{
		catalog: source.Catalog(),
		updates: updates,
		actions: actions,
		logger:  logger.With("component", "tui"),
	}
	m.view = dashboard.Build(source.Snapshot(), m.catalog)
	m.resetCursor()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(updates <-chan state.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.view = dashboard.Build(state.Snapshot(msg), m.catalog)
		if m.selected >= len(m.view.Cards) {
			m.selected = 0
			m.resetCursor()
		}
		return m, waitForSnapshot(m.updates)

	case feedClosedMsg:
		return m, tea.Quit

	case assignDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s: %v", msg.title, msg.err)
			m.failed = true
			m.logger.Warn("assignment failed", "card", msg.title, "err", msg.err)
		} else {
			m.status = fmt.Sprintf("%s → %s", msg.title, msg.label)
			m.failed = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		m.moveSelection(1)
	case "shift+tab", "left", "h":
		m.moveSelection(-1)
	case "down", "j":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-1)
	case "r":
		m.actions.Refresh()
		m.status = "refresh requested"
		m.failed = false
	case "enter":
		return m, m.assignCmd()
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	n := len(m.view.Cards)
	if n == 0 {
		return
	}
	m.selected = (m.selected + delta + n) % n
	m.resetCursor()
}

func (m *Model) moveCursor(delta int) {
	opts := m.options()
	if len(opts) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(opts)) % len(opts)
}

// resetCursor points the cursor at the selected card's current parameter.
func (m *Model) resetCursor() {
	m.cursor = 0
	for i, opt := range m.options() {
		if opt.Selected {
			m.cursor = i
			return
		}
	}
}

func (m Model) card() (dashboard.Card, bool) {
	if m.selected < 0 || m.selected >= len(m.view.Cards) {
		return dashboard.Card{}, false
	}
	return m.view.Cards[m.selected], true
}

// options flattens the selected card's option groups.
func (m Model) options() []dashboard.Option {
	card, ok := m.card()
	if !ok {
		return nil
	}
	var out []dashboard.Option
	for _, group := range card.Options {
		out = append(out, group.Options...)
	}
	return out
}

func (m Model) assignCmd() tea.Cmd {
	card, ok := m.card()
	opts := m.options()
	if !ok || m.cursor >= len(opts) {
		return nil
	}
	opt := opts[m.cursor]
	if opt.ID == card.ParamID {
		return nil
	}
	actions := m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		err := actions.Assign(ctx, card.Kind, card.Index, opt.ID)
		return assignDoneMsg{title: card.Title, label: opt.Label, err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTiles())
	b.WriteString("\n\n")
	b.WriteString(m.renderCards())
	b.WriteString("\n")
	b.WriteString(m.renderOptions())
	b.WriteString("\n")
	if m.status != "" {
		if m.failed {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(m.status)
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab/←→ select output · ↑↓ browse · enter assign · r refresh · q quit"))
	return b.String()
}

func (m Model) renderHeader() string {
	d := m.view.Device
	parts := []string{titleStyle.Render("The Earth Module"), connectionBadge(m.view.Connection), d.Hostname}
	if d.Version != "" {
		parts = append(parts, "v"+d.Version)
	}
	if d.Signal != "" {
		parts = append(parts, d.Signal)
	}
	if d.Memory != "" {
		parts = append(parts, d.Memory)
	}
	if d.Uptime != "" {
		parts = append(parts, "up "+d.Uptime)
	}
	if m.view.Location.Known {
		loc := dashboard.Coordinates(m.view.Location.Lat, m.view.Location.Lng)
		if m.view.Location.City != "" {
			loc = m.view.Location.City + " " + loc
		}
		parts = append(parts, loc)
	}
	if m.view.Update.Available {
		parts = append(parts, pendingStyle.Render("update available"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderTiles() string {
	const perRow = 4
	var rows []string
	var row []string
	for _, tile := range m.view.Tiles {
		text := tile.Text
		if tile.Available {
			text = valueStyle.Render(text + tile.Unit)
		} else {
			text = mutedStyle.Render(text)
		}
		row = append(row, tileStyle.Render(labelStyle.Render(tile.Label)+"\n"+text))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCards() string {
	cards := make([]string, 0, len(m.view.Cards))
	for i, card := range m.view.Cards {
		style := cardStyle
		if i == m.selected {
			style = selectedCardStyle
		}
		level := card.Output.Text
		if card.Output.High {
			level = highStyle.Render(level)
		}
		title := valueStyle.Render(card.Title) + "  " + level
		if card.Pending {
			title += " " + pendingStyle.Render("…")
		}
		body := strings.Join([]string{
			title,
			bar(card.Output.Bar),
			card.ParamLabel,
			labelStyle.Render("actual ") + card.Actual,
		}, "\n")
		cards = append(cards, style.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m Model) renderOptions() string {
	card, ok := m.card()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(card.Title + " parameters"))
	b.WriteString("\n")
	i := 0
	for _, group := range card.Options {
		b.WriteString(mutedStyle.Render(group.Label))
		b.WriteString("\n")
		for _, opt := range group.Options {
			prefix := "  "
			if i == m.cursor {
				prefix = cursorStyle.Render("› ")
			}
			line := opt.Label
			if opt.Detail != "" {
				line += " " + mutedStyle.Render("("+opt.Detail+")")
			}
			if opt.Selected {
				line += " ✓"
			}
			if opt.IsNew {
				line += " " + newBadge
			}
			b.WriteString(prefix + line + "\n")
			i++
		}
	}
	return b.String()
}
