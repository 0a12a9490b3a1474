package provisioning

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger is the minimal printf-style logging interface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during
// provisioning.
type Observer interface {
	Logger

	// Event emits a structured event.
	Event(event Event)
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType
	Stage     string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventStageStarted indicates a stage has started.
	EventStageStarted EventType = "stage.started"
	// EventStageCompleted indicates a stage completed successfully.
	EventStageCompleted EventType = "stage.completed"
	// EventStageSkipped indicates a stage was intentionally skipped.
	EventStageSkipped EventType = "stage.skipped"
	// EventStageFailed indicates a stage failed and the pipeline halted.
	EventStageFailed EventType = "stage.failed"

	// EventChangeApplied indicates a host mutation was performed.
	EventChangeApplied EventType = "change.applied"
	// EventChangeUnneeded indicates the desired state was already in
	// place; the idempotent re-run case.
	EventChangeUnneeded EventType = "change.unneeded"

	// EventWarning indicates a condition the operator should read even on
	// a successful run.
	EventWarning EventType = "warning"
)

// ConsoleObserver implements Observer using the standard log package.
type ConsoleObserver struct{}

// NewConsoleObserver creates a console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	log.Print(formatEvent(event))
}

// formatEvent renders an event as one console line.
func formatEvent(event Event) string {
	var parts []string
	parts = append(parts, string(event.Type))
	if event.Stage != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Stage))
	}
	parts = append(parts, event.Message)
	if len(event.Fields) > 0 {
		var fieldParts []string
		for k, v := range event.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, v))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}
	return strings.Join(parts, " ")
}

// LogStageStart emits a stage start event.
func LogStageStart(observer Observer, stage string) {
	observer.Event(Event{Type: EventStageStarted, Stage: stage, Message: "starting"})
}

// LogStageResult emits the completion, skip, or failure event for a result.
func LogStageResult(observer Observer, result Result, duration time.Duration) {
	switch result.Status {
	case StatusSkipped:
		observer.Event(Event{Type: EventStageSkipped, Stage: result.Stage, Message: result.Detail})
	case StatusFailed:
		observer.Event(Event{Type: EventStageFailed, Stage: result.Stage, Message: result.Detail})
	default:
		observer.Event(Event{
			Type:    EventStageCompleted,
			Stage:   result.Stage,
			Message: result.Detail,
			Fields:  map[string]string{"took": duration.Round(time.Millisecond).String()},
		})
	}
}

// LogWarning emits a warning event.
func LogWarning(observer Observer, stage, message string) {
	observer.Event(Event{Type: EventWarning, Stage: stage, Message: message})
}
