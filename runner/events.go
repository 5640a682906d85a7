package runner

import "time"

// Event type constants emitted by a Runner.
const (
	EventJobStarted   = "job.started"
	EventJobCompleted = "job.completed"
	EventJobRecovered = "job.recovered"
	EventJobFailed    = "job.failed"
	EventJobHalted    = "job.halted"

	EventRunnerStopped = "runner.stopped"
)

// Event describes a lifecycle transition of a job or the runner.
type Event struct {
	// Type is the event type (e.g., "job.completed").
	Type string `json:"type"`

	// Subject is the job ID, empty for runner events.
	Subject string `json:"subject,omitempty"`

	// Time is when the event occurred.
	Time time.Time `json:"time"`

	// Data contains event-specific payload.
	Data map[string]any `json:"data,omitempty"`
}

// EventHandler is a function that handles a runner event. Handlers are
// called synchronously and must not block.
type EventHandler func(Event)
