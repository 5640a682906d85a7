// Package otel provides OpenTelemetry middleware for greeting job runners.
//
// # Tracing
//
// The [Tracing] middleware creates a span for every job execution with
// the job type, ID, hook and requested language as attributes:
//
//	r.UseNamed("tracing", otel.Tracing(
//	    otel.WithTracerProvider(tp),
//	))
//
// # Metrics
//
// The [Metrics] middleware records job execution counters and duration
// histograms via the OTel metrics API:
//
//	r.UseNamed("metrics", otel.Metrics(
//	    otel.WithMeterProvider(mp),
//	))
package otel
