package middleware

import (
	"log/slog"
	"time"

	"github.com/openjobspec/ojs-hello-world/runner"
)

// Logging returns middleware that logs job execution using the provided
// [slog.Logger]. Each job execution produces two log entries: one at start
// (DEBUG level) and one at completion (INFO on success, ERROR on failure).
//
// Log attributes include job.type, job.id, job.hook, greeting.language and
// duration_ms (on completion).
func Logging(logger *slog.Logger) runner.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx runner.JobContext, next runner.HandlerFunc) error {
		attrs := []slog.Attr{
			slog.String("job.type", ctx.Job.Type),
			slog.String("job.id", ctx.Job.ID),
			slog.String("job.hook", ctx.Hook),
			slog.String("greeting.language", string(ctx.Job.Params.Language)),
		}

		logger.LogAttrs(ctx.Context(), slog.LevelDebug, "job started", attrs...)

		start := time.Now()
		err := next(ctx)
		duration := time.Since(start)

		attrs = append(attrs, slog.Float64("duration_ms", float64(duration.Microseconds())/1000.0))

		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			logger.LogAttrs(ctx.Context(), slog.LevelError, "job failed", attrs...)
		} else {
			logger.LogAttrs(ctx.Context(), slog.LevelInfo, "job completed", attrs...)
		}

		return err
	}
}
