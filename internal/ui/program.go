package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the preview program and blocks until it exits.
func Run(src Source, opts Options) error {
	program := tea.NewProgram(NewModel(src, opts), tea.WithAltScreen())
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
