package jobpoll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/heyarsen/jobpoll/clock"
	"github.com/heyarsen/jobpoll/internal/backoff"
	"github.com/heyarsen/jobpoll/internal/registry"
)

// ErrMaxAttempts is reported to OnError when an operation exhausts its
// attempt budget. This stop is terminal: the operation is removed and no
// further ticks fire. Distinguish it from transient probe failures with
// [errors.Is].
var ErrMaxAttempts = errors.New("jobpoll: maximum attempts reached")

// MaxDelay is the default ceiling for backed-off polling delays.
// Override per engine with [WithMaxDelay].
const MaxDelay = backoff.MaxDelay

// Engine schedules and tracks polling operations.
//
// An Engine is an explicit, constructed object: create one at your
// application's composition root (or one per test) with [New], and
// release every timer it owns with [Engine.StopAll] when the session ends.
// There is no package-level shared instance.
//
// Each operation is identified by a caller-chosen key. Starting an
// operation whose key is already active does not create a second timer; it
// returns a [Handle] to the existing operation. All methods are safe for
// concurrent use.
//
// The typical lifecycle is:
//
//	eng, err := jobpoll.New(jobpoll.WithLogger(logger))
//	if err != nil {
//	    slog.Error("failed to create engine", "error", err)
//	    os.Exit(1)
//	}
//	defer eng.StopAll()
//
//	h := eng.StartPolling("training:42", checkStatus, 30*time.Second, jobpoll.IntervalOptions{})
//	...
//	h.Cancel()
type Engine struct {
	reg      *registry.Registry
	clk      clock.Clock
	logger   *slog.Logger
	maxDelay time.Duration
}

// New creates an [Engine] with the given options.
//
// Defaults: [slog.Default] for logging, the system clock for scheduling,
// and a 60 second ceiling on backed-off delays. Returns an error if any
// option is invalid.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{
		maxDelay: backoff.MaxDelay,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.clock
	if clk == nil {
		clk = clock.System()
	}

	e := &Engine{
		reg:      registry.New(clk),
		clk:      clk,
		logger:   logger,
		maxDelay: cfg.maxDelay,
	}

	// page-teardown analogue: release every timer when the owning
	// context ends
	if cfg.ctx != nil {
		go func() {
			<-cfg.ctx.Done()
			e.StopAll()
		}()
	}

	return e, nil
}

// IsPolling reports whether an active operation owns key.
func (e *Engine) IsPolling(key string) bool {
	return e.reg.IsPolling(key)
}

// ActiveKeys returns a sorted snapshot of keys with active operations.
func (e *Engine) ActiveKeys() []string {
	return e.reg.ActiveKeys()
}

// Lookup returns a [Handle] to the active operation for key, if any. Use it
// to reattach to an operation started elsewhere without going through a
// start call's dedup path.
func (e *Engine) Lookup(key string) (Handle, bool) {
	t, ok := e.reg.Lookup(key)
	if !ok {
		return Handle{}, false
	}
	return Handle{e: e, key: t.Key, id: t.ID, done: t.Done}, true
}

// StopPolling stops the operation for key, releasing its timer and clearing
// its failure counter and any pending debounced start. Once stopped, no
// further probe or callback fires for that operation, even if a tick was
// already scheduled or a probe is still in flight.
//
// Stopping an absent or already-stopped key is a no-op. Reports whether an
// active operation was stopped.
func (e *Engine) StopPolling(key string) bool {
	stopped := e.reg.Stop(key)
	if stopped {
		e.logger.Debug("polling stopped", "key", key)
	}
	return stopped
}

// StopAll stops every active operation and pending debounced start.
//
// Call this on session teardown so no timer outlives the engine's owner.
// After StopAll returns, [Engine.IsPolling] is false for every key.
func (e *Engine) StopAll() {
	e.reg.StopAll()
	e.logger.Debug("all polling stopped")
}

// runProbe invokes an interval probe with panic recovery.
func (e *Engine) runProbe(ctx context.Context, key string, probe func(context.Context) error) error {
	_, err := runProbeResult(e, ctx, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, probe(ctx)
	})
	return err
}

// runProbeResult invokes a probe with panic recovery. A panicking probe is
// treated as a failed attempt; the full stack is logged with a correlation
// ID and the returned error carries the ID for the caller's OnError.
func runProbeResult[T any](e *Engine, ctx context.Context, key string, probe func(context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			e.logger.Error("probe panic",
				"key", key,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("probe panic (correlation_id: %s)", correlationID)
		}
	}()
	return probe(ctx)
}

// notifyError routes a probe failure to the caller's OnError, falling back
// to the engine log when no callback is supplied. Errors never propagate
// out of the engine any other way.
func (e *Engine) notifyError(key string, onError func(error), err error) {
	if onError == nil {
		e.logger.Error("poll failed", "key", key, "error", err)
		return
	}
	e.invokeSafe(key, func() { onError(err) })
}

// invokeSafe calls a caller-supplied callback with panic recovery. Panics
// are logged with a correlation ID and do not propagate into the engine.
func (e *Engine) invokeSafe(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			e.logger.Error("callback panic",
				"key", key,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
