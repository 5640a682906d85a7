package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	greeting "github.com/openjobspec/ojs-hello-world"
	"github.com/openjobspec/ojs-hello-world/runner"
)

// PanicError is the error Recovery returns in place of a panic.
//
// Its message names the job and the panic value, so the greeting error
// hook applies its usual recovery rule to it: a panic mentioning a
// language or greeting is recovered with the English fallback.
type PanicError struct {
	JobType  string
	JobID    string
	Language greeting.Language
	Value    any
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in job %s (id=%s): %v", e.JobType, e.JobID, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsPanic reports whether err came from a recovered panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

// Recovery returns middleware that turns a panic in a downstream hook
// into a *[PanicError], which the runner then hands to the error hook.
//
// If a logger is provided, the panic is logged at ERROR level together
// with the requested language, the person being greeted and the stack.
// Pass nil to disable panic logging.
func Recovery(logger *slog.Logger) runner.MiddlewareFunc {
	return func(ctx runner.JobContext, next runner.HandlerFunc) (retErr error) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			pe := &PanicError{
				JobType:  ctx.Job.Type,
				JobID:    ctx.Job.ID,
				Language: ctx.Job.Params.Language,
				Value:    v,
				Stack:    debug.Stack(),
			}
			if logger != nil {
				logger.LogAttrs(ctx.Context(), slog.LevelError, "job panicked",
					slog.String("job.type", pe.JobType),
					slog.String("job.id", pe.JobID),
					slog.String("job.hook", ctx.Hook),
					slog.String("greeting.language", string(pe.Language)),
					slog.String("person.first_name", ctx.Job.Params.FirstName),
					slog.String("person.last_name", ctx.Job.Params.LastName),
					slog.Any("panic", v),
					slog.String("stack", string(pe.Stack)),
				)
			}
			retErr = pe
		}()
		return next(ctx)
	}
}
