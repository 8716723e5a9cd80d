package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"hoffenc/internal/model"
)

// Run launches the interactive application and returns the batch outcome.
// Quitting from the setup form returns an empty report.
func Run(ctx context.Context, opts Options) (model.BatchReport, error) {
	if opts.Service == nil {
		return model.BatchReport{}, errors.New("ui: encode service is required")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, opts)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			m.cancel.Set()
			return model.BatchReport{Cancelled: true}, nil
		}
		return model.BatchReport{}, err
	}
	fm, ok := final.(Model)
	if !ok {
		return model.BatchReport{}, nil
	}
	return fm.Report(), nil
}
