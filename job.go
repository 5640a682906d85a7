package greeting

import "time"

// TimestampLayout is the ISO-8601 layout used for JobResult.ProcessedAt.
// Timestamps are always rendered in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Halt reasons commonly passed by a job runner.
const (
	HaltReasonTimeout        = "timeout"
	HaltReasonCancellation   = "cancellation"
	HaltReasonSystemShutdown = "system_shutdown"
)

// JobParams are the input parameters of a greeting job.
type JobParams struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Language is optional. When empty a language is picked at random.
	Language Language `json:"language,omitempty"`
}

// ExecutionContext is supplied by the job runner on every invocation.
// The greeting handler accepts it but never reads or mutates it.
type ExecutionContext struct {
	Env            map[string]string `json:"env,omitempty"`
	Secrets        map[string]string `json:"secrets,omitempty"`
	Outputs        map[string]any    `json:"outputs,omitempty"`
	PartialResults map[string]any    `json:"partial_results,omitempty"`
	CurrentStep    string            `json:"current_step,omitempty"`
}

// JobResult is the structured output of a successful invocation or recovery.
type JobResult struct {
	Message     string   `json:"message"`
	Language    Language `json:"language"`
	ProcessedAt string   `json:"processed_at"`
}

// ErrorInfo describes the upstream failure handed to the error hook.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorParams are the original job parameters plus the upstream failure.
type ErrorParams struct {
	JobParams
	Error ErrorInfo `json:"error"`
}

// HaltParams are passed to the halt hook when the runner terminates a job.
type HaltParams struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Reason    string `json:"reason"`
}

// Map returns the result as a plain map, the shape job runners persist.
func (r JobResult) Map() map[string]any {
	return map[string]any{
		"message":      r.Message,
		"language":     string(r.Language),
		"processed_at": r.ProcessedAt,
	}
}

// ProcessedTime parses ProcessedAt back into a time.Time.
func (r JobResult) ProcessedTime() (time.Time, error) {
	return time.Parse(TimestampLayout, r.ProcessedAt)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
