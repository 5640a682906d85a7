package middleware

import (
	"time"

	"github.com/openjobspec/ojs-hello-world/runner"
)

// MetricsRecorder is the interface for recording job execution metrics.
// The prom subpackage provides a Prometheus implementation.
type MetricsRecorder interface {
	// JobStarted is called when a job begins execution.
	JobStarted(jobType, language string)

	// JobCompleted is called when a job finishes successfully.
	JobCompleted(jobType, language string, duration time.Duration)

	// JobFailed is called when a job finishes with an error.
	JobFailed(jobType, language string, duration time.Duration)
}

// Metrics returns middleware that records job execution metrics via the
// provided [MetricsRecorder]. The language label is the requested code
// when it is supported, "random" when none was requested and "unknown"
// for anything else, so client input cannot grow the label set.
func Metrics(recorder MetricsRecorder) runner.MiddlewareFunc {
	return func(ctx runner.JobContext, next runner.HandlerFunc) error {
		lang := languageLabel(ctx)
		recorder.JobStarted(ctx.Job.Type, lang)

		start := time.Now()
		err := next(ctx)
		duration := time.Since(start)

		if err != nil {
			recorder.JobFailed(ctx.Job.Type, lang, duration)
		} else {
			recorder.JobCompleted(ctx.Job.Type, lang, duration)
		}

		return err
	}
}

const (
	languageRandom  = "random"
	languageUnknown = "unknown"
)

func languageLabel(ctx runner.JobContext) string {
	lang := ctx.Job.Params.Language
	switch {
	case lang == "":
		return languageRandom
	case lang.IsSupported():
		return string(lang)
	default:
		return languageUnknown
	}
}
