// Package middleware provides pre-built middleware for greeting job runners.
//
// All middleware in this package follows the [runner.MiddlewareFunc]
// signature and can be added via [runner.Runner.Use] or
// [runner.Runner.UseNamed].
//
// # Logging
//
// The [Logging] middleware emits structured log entries via [log/slog] for every
// job execution, including job type, ID, hook, language, duration, and error (if any):
//
//	r.UseNamed("logging", middleware.Logging(slog.Default()))
//
// # Recovery
//
// The [Recovery] middleware catches panics in downstream hooks and converts
// them to errors, so the runner can pass them to the error hook:
//
//	r.UseNamed("recovery", middleware.Recovery(slog.Default()))
//
// # Metrics
//
// The [Metrics] middleware reports job execution metrics via the [MetricsRecorder]
// interface. The prom subpackage implements it with Prometheus collectors:
//
//	rec, err := prom.NewRecorder(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	r.UseNamed("metrics", middleware.Metrics(rec))
package middleware
