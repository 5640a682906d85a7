package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	greeting "github.com/openjobspec/ojs-hello-world"
)

// State represents the lifecycle state of a runner.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// ErrRunnerStopped is returned by Invoke once Shutdown has been called.
var ErrRunnerStopped = errors.New("runner: stopped")

// ErrShutdownIncomplete is returned by Shutdown when jobs were still
// active when it gave up waiting for them.
var ErrShutdownIncomplete = errors.New("runner: shutdown incomplete")

// errShutdown is the cancellation cause for jobs caught by Shutdown.
var errShutdown = errors.New("runner: shutting down")

// Runner runs jobs through the invoke, error and halt hooks of a [Hooks]
// implementation. It is safe for concurrent use.
type Runner struct {
	hooks  Hooks
	config runnerConfig

	middleware *middlewareChain
	chainMu    sync.RWMutex

	eventHandlers []EventHandler
	eventsMu      sync.RWMutex

	// lifecycleMu orders job registration against Shutdown: a job is
	// either registered before the runner stops or not at all.
	lifecycleMu sync.RWMutex
	state       atomic.Value // State
	activeJobs  sync.Map     // job ID -> context.CancelCauseFunc
	activeCount atomic.Int64

	stopOnce sync.Once
}

// New creates a Runner for hooks.
//
// Example:
//
//	r := runner.New(greeting.NewHandler(),
//	    runner.WithTimeout(10*time.Second),
//	    runner.WithGracePeriod(5*time.Second),
//	)
func New(hooks Hooks, opts ...Option) *Runner {
	r := &Runner{
		hooks:      hooks,
		config:     resolveRunnerConfig(opts),
		middleware: newMiddlewareChain(),
	}
	r.state.Store(StateRunning)
	return r
}

// Use adds middleware around the invoke hook.
func (r *Runner) Use(fn MiddlewareFunc) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.middleware.Add(fmt.Sprintf("middleware-%d", len(r.middleware.middleware)), fn)
}

// UseNamed adds a named middleware around the invoke hook.
func (r *Runner) UseNamed(name string, fn MiddlewareFunc) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.middleware.Add(name, fn)
}

// Prepend adds a named middleware at the outermost position of the chain.
func (r *Runner) Prepend(name string, fn MiddlewareFunc) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.middleware.Prepend(name, fn)
}

// InsertBefore inserts a named middleware immediately before existing.
// If existing is not found, the middleware is appended.
func (r *Runner) InsertBefore(existing, name string, fn MiddlewareFunc) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.middleware.InsertBefore(existing, name, fn)
}

// InsertAfter inserts a named middleware immediately after existing.
// If existing is not found, the middleware is appended.
func (r *Runner) InsertAfter(existing, name string, fn MiddlewareFunc) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.middleware.InsertAfter(existing, name, fn)
}

// Remove removes a named middleware.
func (r *Runner) Remove(name string) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.middleware.Remove(name)
}

// Middleware returns the middleware names in execution order.
func (r *Runner) Middleware() []string {
	r.chainMu.RLock()
	defer r.chainMu.RUnlock()
	return r.middleware.Names()
}

// OnEvent registers a handler for runner events.
func (r *Runner) OnEvent(h EventHandler) {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()
	r.eventHandlers = append(r.eventHandlers, h)
}

// State returns the current runner lifecycle state.
func (r *Runner) State() State {
	return r.state.Load().(State)
}

// Run executes job and blocks until it reaches a terminal state.
//
// The invoke hook runs through the middleware chain. If it fails, the
// error hook receives the original params and the failure message; its
// outcome decides between recovered and failed. If the job context is
// done, because of the configured timeout, the caller's cancellation or
// Shutdown, the halt hook is called instead and the job is halted.
func (r *Runner) Run(ctx context.Context, job Job) Outcome {
	start := time.Now()
	job = withDefaults(job)

	jobCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if r.config.timeout > 0 {
		var cancelTimeout context.CancelFunc
		jobCtx, cancelTimeout = context.WithTimeout(jobCtx, r.config.timeout)
		defer cancelTimeout()
	}

	if !r.register(job.ID, cancel) {
		return r.halt(ctx, job, greeting.HaltReasonSystemShutdown, start)
	}
	defer r.unregister(job.ID)

	if jobCtx.Err() != nil {
		return r.halt(ctx, job, haltReason(jobCtx), start)
	}

	r.emit(EventJobStarted, job.ID, map[string]any{"type": job.Type})

	result, err := r.runChain(jobCtx, job)
	if err == nil {
		r.emit(EventJobCompleted, job.ID, nil)
		return Outcome{JobID: job.ID, State: JobStateCompleted, Result: result, Duration: time.Since(start)}
	}

	if jobCtx.Err() != nil {
		return r.halt(ctx, job, haltReason(jobCtx), start)
	}

	r.log(jobCtx, slog.LevelWarn, "invoke failed, calling error hook",
		slog.String("job.id", job.ID),
		slog.String("error", err.Error()),
	)

	res, hookErr := r.hooks.Error(jobCtx, greeting.ErrorParams{
		JobParams: job.Params,
		Error: greeting.ErrorInfo{
			Message: err.Error(),
			Code:    greeting.ErrorCode(err),
		},
	})
	if hookErr != nil {
		r.emit(EventJobFailed, job.ID, map[string]any{"error": hookErr.Error()})
		return Outcome{JobID: job.ID, State: JobStateFailed, Err: hookErr, Duration: time.Since(start)}
	}

	r.emit(EventJobRecovered, job.ID, map[string]any{"error": err.Error()})
	return Outcome{JobID: job.ID, State: JobStateRecovered, Result: &res, Err: err, Duration: time.Since(start)}
}

// Invoke runs only the invoke hook of job through the middleware chain
// and returns its result. Unlike Run, a failure is returned as is: the
// error and halt hooks are left to the caller. Push delivery uses it,
// where the job server decides which hook comes next.
//
// A stopped runner rejects the job with [ErrRunnerStopped].
func (r *Runner) Invoke(ctx context.Context, job Job) (greeting.JobResult, error) {
	job = withDefaults(job)

	jobCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if r.config.timeout > 0 {
		var cancelTimeout context.CancelFunc
		jobCtx, cancelTimeout = context.WithTimeout(jobCtx, r.config.timeout)
		defer cancelTimeout()
	}

	if !r.register(job.ID, cancel) {
		return greeting.JobResult{}, ErrRunnerStopped
	}
	defer r.unregister(job.ID)

	result, err := r.runChain(jobCtx, job)
	if err != nil {
		return greeting.JobResult{}, err
	}
	if result == nil {
		return greeting.JobResult{}, nil
	}
	return *result, nil
}

// Shutdown stops the runner. New jobs are halted with reason
// "system_shutdown" without being invoked. Active jobs get the grace
// period to finish; after that, or once ctx is done, their contexts are
// cancelled and they are halted as well.
//
// Jobs cancelled because the grace period expired get one more grace
// period to return; once ctx is done Shutdown stops waiting. A hook that
// ignores cancellation therefore cannot hold Shutdown for longer than
// twice the grace period, even with a context that is never done. If jobs
// are still active when Shutdown gives up, it returns an error wrapping
// [ErrShutdownIncomplete] and, when set, the error of ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.lifecycleMu.Lock()
	r.state.Store(StateStopped)
	r.lifecycleMu.Unlock()

	waitCtx, stopWaiting := context.WithCancel(ctx)
	defer stopWaiting()

	graceDone := make(chan struct{})
	go func() {
		r.waitForActiveJobs(waitCtx)
		close(graceDone)
	}()

	timer := time.NewTimer(r.config.gracePeriod)
	defer timer.Stop()

	select {
	case <-graceDone:
	case <-timer.C:
		r.cancelActiveJobs()
		r.awaitCancelled(graceDone)
	case <-ctx.Done():
		r.cancelActiveJobs()
		r.awaitCancelled(graceDone)
	}

	r.stopOnce.Do(func() {
		r.emit(EventRunnerStopped, "", nil)
	})

	if n := r.activeCount.Load(); n > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %d job(s) still active: %w", ErrShutdownIncomplete, n, err)
		}
		return fmt.Errorf("%w: %d job(s) still active", ErrShutdownIncomplete, n)
	}
	return nil
}

// register records an active job unless the runner has stopped.
func (r *Runner) register(id string, cancel context.CancelCauseFunc) bool {
	r.lifecycleMu.RLock()
	defer r.lifecycleMu.RUnlock()

	if r.State() != StateRunning {
		return false
	}
	r.activeJobs.Store(id, cancel)
	r.activeCount.Add(1)
	return true
}

func (r *Runner) unregister(id string) {
	r.activeJobs.Delete(id)
	r.activeCount.Add(-1)
}

// awaitCancelled waits for done for at most one grace period.
func (r *Runner) awaitCancelled(done <-chan struct{}) {
	timer := time.NewTimer(r.config.gracePeriod)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		r.log(context.Background(), slog.LevelWarn, "jobs ignored cancellation",
			slog.Int64("runner.active_jobs", r.activeCount.Load()),
		)
	}
}

func (r *Runner) runChain(ctx context.Context, job Job) (*greeting.JobResult, error) {
	ref := &jobResultRef{}
	jctx := JobContext{
		Job:       job,
		Hook:      HookInvoke,
		ctx:       ctx,
		resultRef: ref,
	}

	r.chainMu.RLock()
	wrapped := r.middleware.then(r.invoke)
	r.chainMu.RUnlock()

	if err := wrapped(jctx); err != nil {
		return nil, err
	}
	return ref.result, nil
}

func (r *Runner) invoke(jc JobContext) error {
	res, err := r.hooks.Invoke(jc.ctx, jc.Job.Params, jc.Job.Context)
	if err != nil {
		return err
	}
	jc.SetResult(res)
	return nil
}

func (r *Runner) halt(ctx context.Context, job Job, reason string, start time.Time) Outcome {
	r.log(ctx, slog.LevelInfo, "halting job",
		slog.String("job.id", job.ID),
		slog.String("halt.reason", reason),
	)

	// The job context is already done; halt must still run.
	r.hooks.Halt(context.WithoutCancel(ctx), greeting.HaltParams{
		FirstName: job.Params.FirstName,
		LastName:  job.Params.LastName,
		Reason:    reason,
	})

	r.emit(EventJobHalted, job.ID, map[string]any{"reason": reason})
	return Outcome{JobID: job.ID, State: JobStateHalted, HaltReason: reason, Duration: time.Since(start)}
}

// cancelActiveJobs cancels the context of every active job.
func (r *Runner) cancelActiveJobs() {
	r.activeJobs.Range(func(_, v any) bool {
		v.(context.CancelCauseFunc)(errShutdown)
		return true
	})
}

// waitForActiveJobs blocks until all active jobs have completed or ctx is done.
func (r *Runner) waitForActiveJobs(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for r.activeCount.Load() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) emit(typ, subject string, data map[string]any) {
	r.eventsMu.RLock()
	handlers := r.eventHandlers
	r.eventsMu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	ev := Event{Type: typ, Subject: subject, Time: time.Now(), Data: data}
	for _, h := range handlers {
		h(ev)
	}
}

func (r *Runner) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if r.config.logger == nil {
		return
	}
	r.config.logger.LogAttrs(ctx, level, msg, attrs...)
}

func withDefaults(job Job) Job {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Type == "" {
		job.Type = DefaultJobType
	}
	return job
}

// haltReason maps the cause of a done job context to a halt reason.
func haltReason(ctx context.Context) string {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, errShutdown):
		return greeting.HaltReasonSystemShutdown
	case errors.Is(cause, context.DeadlineExceeded):
		return greeting.HaltReasonTimeout
	default:
		return greeting.HaltReasonCancellation
	}
}
