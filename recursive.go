package jobpoll

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/heyarsen/jobpoll/internal/registry"
)

// RecursiveOptions configures [StartRecursive].
//
// The zero value is valid: first tick after one full delay, unlimited
// attempts, exponential backoff enabled, no continuation predicate (the
// operation polls until cancelled), failures logged.
type RecursiveOptions[T any] struct {
	// ShouldContinue is evaluated after each successful probe. Returning
	// false stops the operation and fires OnComplete with the observed
	// result; this is how callers encode "stop when the job reports a
	// terminal status" without the engine knowing what a status is.
	// A nil predicate continues forever.
	ShouldContinue func(T) bool

	// MaxAttempts stops the operation after this many probe invocations
	// and reports [ErrMaxAttempts] through OnError. Zero means unlimited.
	// The budget counts ticks, not wall-clock time; backed-off ticks make
	// the same budget span a longer period. Callers needing a hard
	// wall-clock cutoff should layer their own timer and cancel the
	// returned handle.
	MaxAttempts int

	// Immediate runs the first probe without waiting one delay.
	Immediate bool

	// DisableBackoff keeps the reschedule delay fixed at the base delay
	// regardless of failures.
	DisableBackoff bool

	// OnComplete fires exactly once when ShouldContinue returns false,
	// with the result that ended the loop.
	OnComplete func(T)

	// OnError receives every probe failure and, as its final call, the
	// terminal [ErrMaxAttempts] if the attempt budget runs out. When nil,
	// failures are logged instead.
	OnError func(error)
}

// StartRecursive begins a self-rescheduling polling operation for key.
//
// Unlike [Engine.StartPolling], the next tick is scheduled only after the
// current probe settles, so no two probes for the same key are ever in
// flight at once. Use this when the status check itself may be slow, or
// when the loop should end on a semantic condition via ShouldContinue.
//
// StartRecursive is a function rather than a method because methods cannot
// have type parameters; the result type T flows from the probe to
// ShouldContinue and OnComplete.
//
// If key already has an active operation, no new timer is created and the
// returned [Handle] refers to the existing operation. StartRecursive never
// blocks and never fails.
func StartRecursive[T any](e *Engine, key string, probe func(context.Context) (T, error), delay time.Duration, opts RecursiveOptions[T]) Handle {
	if key == "" {
		e.logger.Error("ignoring start with empty key")
		return Handle{}
	}
	if probe == nil {
		e.logger.Error("ignoring start with nil probe", "key", key)
		return Handle{}
	}
	if delay <= 0 {
		e.logger.Warn("non-positive delay corrected",
			"key", key, "delay", delay, "fallback", fallbackInterval)
		delay = fallbackInterval
	}

	op := &registry.Operation{
		Key:          key,
		Strategy:     registry.StrategyRecursive,
		BaseInterval: delay,
		MaxDelay:     e.maxDelay,
		MaxAttempts:  opts.MaxAttempts,
		Backoff:      !opts.DisableBackoff,
	}

	t, fresh := e.reg.Register(op)
	h := Handle{e: e, key: t.Key, id: t.ID, done: t.Done}
	if !fresh {
		// dedup: the key is already being polled
		return h
	}

	var tick func()
	tick = func() {
		_, ctx, ok := e.reg.BeginAttempt(t.Key, t.ID)
		if !ok {
			return
		}

		result, err := runProbeResult(e, ctx, t.Key, probe)

		cont := true
		if err == nil && opts.ShouldContinue != nil {
			cont, err = evalPredicate(e, t.Key, opts.ShouldContinue, result)
		}

		attempt, ok := e.reg.Settle(t.Key, t.ID, err != nil)
		if !ok {
			// stopped while the probe was in flight; no callback
			// fires after stop
			return
		}
		if err != nil {
			e.notifyError(t.Key, opts.OnError, err)
		}

		switch decide(err != nil, attempt.Exhausted, cont) {
		case outcomeComplete:
			// StopMatching succeeds at most once per generation,
			// so OnComplete cannot double-fire
			if e.reg.StopMatching(t.Key, t.ID) {
				e.logger.Debug("polling complete",
					"key", t.Key, "attempts", attempt.Count)
				if opts.OnComplete != nil {
					e.invokeSafe(t.Key, func() { opts.OnComplete(result) })
				}
			}
		case outcomeExhausted:
			if e.reg.StopMatching(t.Key, t.ID) {
				e.logger.Debug("attempt budget exhausted",
					"key", t.Key, "attempts", attempt.Count)
				e.notifyError(t.Key, opts.OnError, ErrMaxAttempts)
			}
		case outcomeContinue:
			// reschedule only after the probe settled; ScheduleNext
			// re-checks that the operation is still live, so a tick
			// racing a cancel stays silent
			e.reg.ScheduleNext(t.Key, t.ID, tick)
		}
	}

	first := delay
	if opts.Immediate {
		first = 0
	}
	e.reg.ScheduleAfter(t.Key, t.ID, first, tick)

	e.logger.Debug("recursive polling started",
		"key", key, "delay", delay, "immediate", opts.Immediate,
		"max_attempts", opts.MaxAttempts)
	return h
}

// evalPredicate runs ShouldContinue with panic recovery. A panicking
// predicate counts as a failed attempt, like a panicking probe: the tick
// settles as a failure, OnError receives an error carrying the correlation
// ID, and the loop keeps going with backoff.
func evalPredicate[T any](e *Engine, key string, pred func(T) bool, result T) (cont bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			e.logger.Error("predicate panic",
				"key", key,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			cont = true
			err = fmt.Errorf("predicate panic (correlation_id: %s)", correlationID)
		}
	}()
	return pred(result), nil
}
