package runner

import (
	"log/slog"
	"time"
)

// runnerConfig holds the resolved configuration for a Runner.
type runnerConfig struct {
	timeout     time.Duration
	gracePeriod time.Duration
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithTimeout sets the maximum time a job may spend in the invoke hook.
// A job exceeding it is halted with reason "timeout". Default: no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *runnerConfig) {
		c.timeout = d
	}
}

// WithGracePeriod sets the maximum time Shutdown waits for active jobs
// before halting them. Default: 25 seconds.
func WithGracePeriod(d time.Duration) Option {
	return func(c *runnerConfig) {
		c.gracePeriod = d
	}
}

// WithLogger sets a structured logger for the runner's operational events:
// hook transitions and halts. Pass nil to disable logging (the default).
func WithLogger(logger *slog.Logger) Option {
	return func(c *runnerConfig) {
		c.logger = logger
	}
}

func resolveRunnerConfig(opts []Option) runnerConfig {
	cfg := runnerConfig{
		gracePeriod: 25 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
