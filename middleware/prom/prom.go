// Package prom implements [middleware.MetricsRecorder] with Prometheus
// collectors.
//
//	rec, err := prom.NewRecorder(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	r.UseNamed("metrics", middleware.Metrics(rec))
package prom

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "greeting"

// Recorder records job metrics into Prometheus collectors.
type Recorder struct {
	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
// Collectors already registered by another Recorder are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	labels := []string{"job_type", "language"}

	r := &Recorder{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_started_total",
			Help:      "Number of greeting jobs started.",
		}, labels),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Number of greeting jobs completed successfully.",
		}, labels),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Number of greeting jobs whose invoke hook failed.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of the invoke hook in seconds.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, labels),
	}

	var err error
	if r.started, err = register(reg, r.started); err != nil {
		return nil, err
	}
	if r.completed, err = register(reg, r.completed); err != nil {
		return nil, err
	}
	if r.failed, err = register(reg, r.failed); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	return r, nil
}

// JobStarted implements middleware.MetricsRecorder.
func (r *Recorder) JobStarted(jobType, language string) {
	r.started.WithLabelValues(jobType, language).Inc()
}

// JobCompleted implements middleware.MetricsRecorder.
func (r *Recorder) JobCompleted(jobType, language string, duration time.Duration) {
	r.completed.WithLabelValues(jobType, language).Inc()
	r.duration.WithLabelValues(jobType, language).Observe(duration.Seconds())
}

// JobFailed implements middleware.MetricsRecorder.
func (r *Recorder) JobFailed(jobType, language string, duration time.Duration) {
	r.failed.WithLabelValues(jobType, language).Inc()
	r.duration.WithLabelValues(jobType, language).Observe(duration.Seconds())
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("prom: register collector: %w", err)
	}
	return c, nil
}
