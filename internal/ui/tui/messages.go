// Package tui provides a Bubble Tea terminal UI for provisioning progress.
package tui

import "github.com/hardenlab/nodeprep/internal/provisioning"

// StageEventMsg carries one pipeline event into the display.
type StageEventMsg struct {
	Event provisioning.Event
}

// TickMsg is sent periodically to animate the spinner.
type TickMsg struct{}

// ErrMsg carries the pipeline failure.
type ErrMsg struct{ Err error }

// DoneMsg signals the pipeline completed.
type DoneMsg struct{}
