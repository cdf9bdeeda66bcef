package jobpoll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heyarsen/jobpoll/clock"
)

// engineConfig holds mutable state during Engine construction.
type engineConfig struct {
	logger   *slog.Logger
	clock    clock.Clock
	ctx      context.Context
	maxDelay time.Duration
}

// Option is a function that configures an [Engine] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithLogger], [WithClock], [WithContext], [WithMaxDelay].
type Option func(*engineConfig) error

// WithLogger sets a custom [slog.Logger] for the engine.
//
// The engine logs operation lifecycle at debug level and probe failures
// without an OnError callback at error level. If not specified,
// [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *engineConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock sets the [clock.Clock] the engine schedules through.
//
// Inject a [clock.Fake] in tests to drive ticks with virtual time instead
// of real sleeps. Defaults to [clock.System].
//
// Returns an error if the clock is nil.
func WithClock(clk clock.Clock) Option {
	return func(cfg *engineConfig) error {
		if clk == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = clk
		return nil
	}
}

// WithContext ties the engine's lifetime to ctx: when ctx is cancelled,
// [Engine.StopAll] runs and every timer is released.
//
// This is the teardown hook for session-scoped engines; cancel the context
// when the owning session ends and no orphaned timer survives it. The
// engine remains usable after the context ends, but operations must be
// restarted explicitly.
//
// Returns an error if the context is nil.
func WithContext(ctx context.Context) Option {
	return func(cfg *engineConfig) error {
		if ctx == nil {
			return errors.New("context cannot be nil")
		}
		cfg.ctx = ctx
		return nil
	}
}

// WithMaxDelay caps backed-off polling delays for all operations started on
// this engine. Defaults to 60 seconds.
//
// Returns an error if the duration is zero or negative.
func WithMaxDelay(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		if d <= 0 {
			return errors.New("max delay must be positive")
		}
		cfg.maxDelay = d
		return nil
	}
}
