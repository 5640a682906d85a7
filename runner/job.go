package runner

import (
	"context"
	"time"

	greeting "github.com/openjobspec/ojs-hello-world"
)

// DefaultJobType is assigned to jobs submitted without a type.
const DefaultJobType = "hello.world"

// Hook names, as reported in JobContext.Hook and events.
const (
	HookInvoke = "invoke"
	HookError  = "error"
	HookHalt   = "halt"
)

// Hooks is the lifecycle contract a job implements. *greeting.Handler
// satisfies it.
type Hooks interface {
	Invoke(ctx context.Context, params greeting.JobParams, ec greeting.ExecutionContext) (greeting.JobResult, error)
	Error(ctx context.Context, params greeting.ErrorParams) (greeting.JobResult, error)
	Halt(ctx context.Context, params greeting.HaltParams)
}

// JobState represents the final state of a job run.
type JobState string

const (
	JobStateCompleted JobState = "completed"
	JobStateRecovered JobState = "recovered"
	JobStateFailed    JobState = "failed"
	JobStateHalted    JobState = "halted"
)

// IsTerminal reports whether s is one of the states an Outcome carries.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateRecovered || s == JobStateFailed || s == JobStateHalted
}

// Succeeded reports whether the run produced a result.
func (s JobState) Succeeded() bool {
	return s == JobStateCompleted || s == JobStateRecovered
}

// Job is a single unit of work submitted to a Runner.
type Job struct {
	ID      string
	Type    string
	Params  greeting.JobParams
	Context greeting.ExecutionContext
}

// Outcome is the result of Runner.Run.
type Outcome struct {
	JobID string
	State JobState

	// Result is set for completed and recovered jobs.
	Result *greeting.JobResult

	// Err is set for failed jobs. For recovered jobs it holds the invoke
	// failure that was recovered from.
	Err error

	// HaltReason is set for halted jobs.
	HaltReason string

	Duration time.Duration
}

// jobResultRef is a mutable container for a job's result, shared across
// JobContext copies so that SetResult works through the middleware chain.
type jobResultRef struct {
	result *greeting.JobResult
}

// JobContext provides execution-scoped state to middleware and hooks.
type JobContext struct {
	// Job is the job being run.
	Job Job

	// Hook is the hook being executed.
	Hook string

	// ctx is cancelled on timeout, cancellation or shutdown.
	ctx context.Context

	resultRef *jobResultRef
}

// Context returns the context.Context for this job execution.
func (jc JobContext) Context() context.Context {
	return jc.ctx
}

// WithContext returns a copy of jc that carries ctx. Middleware uses it
// to pass values such as trace spans down the chain.
func (jc JobContext) WithContext(ctx context.Context) JobContext {
	jc.ctx = ctx
	return jc
}

// SetResult sets the job's result.
func (jc JobContext) SetResult(result greeting.JobResult) {
	if jc.resultRef != nil {
		jc.resultRef.result = &result
	}
}

// Result returns the result set so far, if any.
func (jc JobContext) Result() (greeting.JobResult, bool) {
	if jc.resultRef == nil || jc.resultRef.result == nil {
		return greeting.JobResult{}, false
	}
	return *jc.resultRef.result, true
}

// NewJobContextForTest creates a JobContext suitable for use in tests.
// It initialises the internal context to context.Background().
// This is intended only for testing middleware outside a Runner.
func NewJobContextForTest(job Job) JobContext {
	return JobContext{
		Job:       job,
		Hook:      HookInvoke,
		ctx:       context.Background(),
		resultRef: &jobResultRef{},
	}
}
