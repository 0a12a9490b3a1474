package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hardenlab/nodeprep/internal/provisioning"
)

// programObserver forwards pipeline events into the running program.
// Printf lines are dropped; the stage rows carry the same information.
type programObserver struct {
	events chan<- provisioning.Event
}

func (o *programObserver) Printf(string, ...interface{}) {}

func (o *programObserver) Event(event provisioning.Event) {
	o.events <- event
}

// RunProvision executes the pipeline behind a live stage display.
// The pipeline report and error are returned exactly as a plain run would
// return them; a display failure surfaces as its own error. RunProvision
// never returns while the pipeline goroutine may still be running: when the
// display exits early (the quit key, or a terminal failure) the run is
// canceled and awaited first, so an abandoned run reports the interrupted
// stage's failure instead of success.
func RunProvision(pctx *provisioning.Context, stages []provisioning.Stage, opts ...tea.ProgramOption) (*provisioning.Report, error) {
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = stage.Name()
	}

	program := tea.NewProgram(NewModel(pctx.Config.User, names), opts...)

	events := make(chan provisioning.Event, 32)
	pctx.Observer = &programObserver{events: events}

	runCtx, stop := context.WithCancel(pctx.Context)
	defer stop()
	pctx.Context = runCtx

	var report *provisioning.Report
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, runErr = provisioning.NewPipeline(stages...).Run(pctx)
		close(events)
	}()
	go func() {
		for event := range events {
			program.Send(StageEventMsg{Event: event})
		}
		if runErr != nil {
			program.Send(ErrMsg{Err: runErr})
		} else {
			program.Send(DoneMsg{})
		}
	}()

	_, displayErr := program.Run()

	// The display can exit before the pipeline finishes. Cancel the run and
	// wait for the pipeline goroutine; report and runErr must not be read
	// while it may still write them.
	stop()
	<-done

	if runErr != nil {
		return report, runErr
	}
	if displayErr != nil {
		return report, fmt.Errorf("display error: %w", displayErr)
	}
	return report, nil
}
