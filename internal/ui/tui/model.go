package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hardenlab/nodeprep/internal/provisioning"
)

// stageState is the display status of one pipeline stage.
type stageState string

const (
	statePending stageState = "pending"
	stateActive  stageState = "active"
	stateDone    stageState = "done"
	stateSkipped stageState = "skipped"
	stateFailed  stageState = "failed"
)

// StageRow is one pipeline stage as displayed.
type StageRow struct {
	Name   string
	State  stageState
	Detail string
}

// Model is the Bubble Tea model for the provisioning display.
type Model struct {
	User string

	Stages   []StageRow
	Warnings []string

	StartTime    time.Time
	SpinnerFrame int

	Width  int
	Height int
	Err    error
	Done   bool
}

// NewModel creates a model displaying the given stages as pending.
func NewModel(user string, stageNames []string) Model {
	rows := make([]StageRow, len(stageNames))
	for i, name := range stageNames {
		rows[i] = StageRow{Name: name, State: statePending}
	}
	return Model{
		User:      user,
		Stages:    rows,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StageEventMsg:
		m.applyEvent(msg.Event)

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// applyEvent maps a pipeline event onto the stage rows.
func (m *Model) applyEvent(event provisioning.Event) {
	if event.Type == provisioning.EventWarning {
		m.Warnings = append(m.Warnings, event.Message)
		return
	}

	idx := -1
	for i, row := range m.Stages {
		if row.Name == event.Stage {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	switch event.Type {
	case provisioning.EventStageStarted:
		m.Stages[idx].State = stateActive
	case provisioning.EventStageCompleted:
		m.Stages[idx].State = stateDone
		m.Stages[idx].Detail = event.Message
	case provisioning.EventStageSkipped:
		m.Stages[idx].State = stateSkipped
		m.Stages[idx].Detail = event.Message
	case provisioning.EventStageFailed:
		m.Stages[idx].State = stateFailed
		m.Stages[idx].Detail = event.Message
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
