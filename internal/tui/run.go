package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the operator quits or ctx is done.
func Run(ctx context.Context, source Source, actions Actions, logger *slog.Logger) error {
	updates, cancel := source.Subscribe()
	defer cancel()

	program := tea.NewProgram(
		NewModel(source, updates, actions, logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
