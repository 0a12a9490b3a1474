package tui

import (
	"fmt"
	"strings"
	"time"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderStages(&b, m)
	renderWarnings(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := "nodeprep: provisioning " + m.User
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Failed: %v", m.Err))
	case m.Done:
		status += doneStyle.Render("Complete")
	default:
		status += activeStyle.Render(spinnerFrames[m.SpinnerFrame%len(spinnerFrames)])
	}
	b.WriteString(status)
	b.WriteString("\n\n")
}

func renderStages(b *strings.Builder, m Model) {
	for _, row := range m.Stages {
		var mark, name string
		switch row.State {
		case stateDone:
			mark = doneStyle.Render(checkMark)
			name = row.Name
		case stateSkipped:
			mark = dimStyle.Render(skipMark)
			name = dimStyle.Render(row.Name)
		case stateFailed:
			mark = failedStyle.Render(crossMark)
			name = failedStyle.Render(row.Name)
		case stateActive:
			mark = activeStyle.Render(spinnerFrames[m.SpinnerFrame%len(spinnerFrames)])
			name = activeStyle.Render(row.Name)
		default:
			mark = dimStyle.Render(pending)
			name = dimStyle.Render(row.Name)
		}

		b.WriteString(fmt.Sprintf("  %s %-10s", mark, name))
		if row.Detail != "" {
			b.WriteString(dimStyle.Render(" " + row.Detail))
		}
		b.WriteString("\n")
	}
}

func renderWarnings(b *strings.Builder, m Model) {
	for _, warning := range m.Warnings {
		b.WriteString(warningStyle.Render("  ! " + warning))
		b.WriteString("\n")
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	b.WriteString(footerStyle.Render(fmt.Sprintf("elapsed %s · q to quit", elapsed)))
	b.WriteString("\n")
}
