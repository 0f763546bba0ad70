package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"boxrt/internal/heap"
	"boxrt/internal/stress"
	"boxrt/internal/ui"
)

type stressOutcome struct {
	report stress.Report
	err    error
}

// runStressWithUI runs the stress driver in the background and renders its
// progress until the event channel closes.
func runStressWithUI(ctx context.Context, title string, h *heap.Heap, opts stress.Options) (stress.Report, error) {
	events := make(chan stress.Event, 256)
	outcomeCh := make(chan stressOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = stress.ChannelSink{Ch: events}
		rep, err := stress.Run(ctx, h, optsCopy)
		outcomeCh <- stressOutcome{report: rep, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, opts.Workers, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The program may quit before the driver finishes; keep the sink unblocked.
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}
