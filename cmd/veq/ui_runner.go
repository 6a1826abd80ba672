package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"veq/internal/diag"
	"veq/internal/driver"
	"veq/internal/ui"
	"veq/internal/unit"
)

type runOutcome struct {
	res *driver.RunResult
	err error
}

// runAnalysisWithUI executes the pipeline for an already-loaded unit
// while a Bubble Tea program renders per-type progress. Stdout belongs
// to the TUI until it quits, so callers print results afterwards.
func runAnalysisWithUI(ctx context.Context, title string, u *unit.Unit, opts driver.Options, bag *diag.Bag) (*driver.RunResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, u, optsCopy, bag)
		outcomeCh <- runOutcome{res: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, driver.TypeNames(u), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.res, uiErr
	}
	return outcome.res, outcome.err
}
