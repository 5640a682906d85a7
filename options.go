package greeting

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// RandSource picks a random index. IntN must return a value in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Clock returns the current time.
type Clock func() time.Time

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// handlerConfig holds the resolved configuration for a Handler.
type handlerConfig struct {
	logger *slog.Logger
	rand   RandSource
	clock  Clock
}

// Option configures a Handler.
type Option func(*handlerConfig)

// WithLogger sets the logger used for diagnostic output. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) {
		c.logger = logger
	}
}

// WithRandSource sets the source used to pick a language when none is given.
// Tests use it to make selection deterministic.
func WithRandSource(src RandSource) Option {
	return func(c *handlerConfig) {
		c.rand = src
	}
}

// WithClock sets the clock used to stamp results. Default: time.Now.
func WithClock(clock Clock) Option {
	return func(c *handlerConfig) {
		c.clock = clock
	}
}

func resolveHandlerConfig(opts []Option) handlerConfig {
	cfg := handlerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.rand == nil {
		cfg.rand = globalRand{}
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}
	return cfg
}
