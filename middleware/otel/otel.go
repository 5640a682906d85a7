package otel

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/openjobspec/ojs-hello-world/runner"
)

const instrumentationName = "github.com/openjobspec/ojs-hello-world/middleware/otel"

// --- Options ---

// Option configures the OTel middleware.
type Option func(*config)

type config struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTracerProvider sets a custom TracerProvider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = tp }
}

// WithMeterProvider sets a custom MeterProvider. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.meterProvider = mp }
}

// --- Tracing Middleware ---

// Tracing returns middleware that creates a span for every job execution.
//
// Span attributes include:
//   - greeting.job.type
//   - greeting.job.id
//   - greeting.job.hook
//   - greeting.language (requested; empty means random)
//
// The span context is passed down the chain, so hooks see it through
// ctx. On error, the span status is set to Error with the error recorded.
func Tracing(opts ...Option) runner.MiddlewareFunc {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(instrumentationName)

	return func(ctx runner.JobContext, next runner.HandlerFunc) error {
		spanCtx, span := tracer.Start(ctx.Context(),
			fmt.Sprintf("greeting.job %s", ctx.Job.Type),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(jobAttributes(ctx)...),
		)
		defer span.End()

		err := next(ctx.WithContext(spanCtx))

		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			if res, ok := ctx.Result(); ok {
				span.SetAttributes(attribute.String("greeting.resolved_language", string(res.Language)))
			}
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}

// --- Metrics Middleware ---

// Metrics returns middleware that records job execution metrics via OTel.
//
// Recorded instruments:
//   - greeting.job.started (counter): incremented when a job begins
//   - greeting.job.completed (counter): incremented on success
//   - greeting.job.failed (counter): incremented on failure
//   - greeting.job.duration (histogram, milliseconds): execution duration
func Metrics(opts ...Option) runner.MiddlewareFunc {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	mp := cfg.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	jobStarted, _ := meter.Int64Counter("greeting.job.started",
		metric.WithDescription("Number of greeting jobs started"),
	)
	jobCompleted, _ := meter.Int64Counter("greeting.job.completed",
		metric.WithDescription("Number of greeting jobs completed successfully"),
	)
	jobFailed, _ := meter.Int64Counter("greeting.job.failed",
		metric.WithDescription("Number of greeting jobs that failed"),
	)
	jobDuration, _ := meter.Float64Histogram("greeting.job.duration",
		metric.WithDescription("Greeting job execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return func(ctx runner.JobContext, next runner.HandlerFunc) error {
		attrs := metric.WithAttributes(
			attribute.String("greeting.job.type", ctx.Job.Type),
			attribute.String("greeting.job.hook", ctx.Hook),
		)

		jobStarted.Add(ctx.Context(), 1, attrs)

		start := time.Now()
		err := next(ctx)
		durationMS := float64(time.Since(start).Microseconds()) / 1000.0

		jobDuration.Record(ctx.Context(), durationMS, attrs)

		if err != nil {
			jobFailed.Add(ctx.Context(), 1, attrs)
		} else {
			jobCompleted.Add(ctx.Context(), 1, attrs)
		}

		return err
	}
}

// jobAttributes returns the standard OTel attributes for a job.
func jobAttributes(ctx runner.JobContext) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("greeting.job.type", ctx.Job.Type),
		attribute.String("greeting.job.id", ctx.Job.ID),
		attribute.String("greeting.job.hook", ctx.Hook),
		attribute.String("greeting.language", string(ctx.Job.Params.Language)),
	}
}
