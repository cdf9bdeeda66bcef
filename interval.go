package jobpoll

import (
	"context"
	"time"

	"github.com/heyarsen/jobpoll/internal/registry"
)

// fallbackInterval replaces a non-positive polling interval. Start calls
// never fail, so a bad interval is corrected and logged instead.
const fallbackInterval = time.Second

// IntervalOptions configures [Engine.StartPolling].
//
// The zero value is valid: first tick after one full interval, unlimited
// attempts, exponential backoff enabled, failures logged.
type IntervalOptions struct {
	// Immediate schedules the first probe right away instead of waiting
	// one interval. The probe still runs asynchronously; StartPolling
	// never blocks on it.
	Immediate bool

	// MaxAttempts stops the operation after this many probe invocations
	// and reports [ErrMaxAttempts] through OnError. Zero means unlimited.
	MaxAttempts int

	// DisableBackoff keeps the tick period fixed at the base interval
	// regardless of failures. By default consecutive failures double the
	// period, capped at the engine's max delay.
	DisableBackoff bool

	// OnError receives every probe failure and, as its final call, the
	// terminal [ErrMaxAttempts] if the attempt budget runs out. When nil,
	// failures are logged instead.
	OnError func(error)
}

// StartPolling begins a fixed-period polling operation for key.
//
// The probe runs once per interval. A probe slower than the interval does
// not delay the next tick, so probes may overlap; callers that need strict
// non-overlap must use [StartRecursive] instead.
//
// Probe errors never stop the operation: the failure is reported via
// OnError (or logged), the failure streak grows, and - unless backoff is
// disabled - the live period is torn down and recreated at the backed-off
// delay, so the slowdown takes effect with the very next tick. A later
// success resets the streak and restores the base interval. The operation
// runs until cancelled or until MaxAttempts is exhausted.
//
// If key already has an active operation, no new timer is created and the
// returned [Handle] refers to the existing operation. StartPolling never
// blocks and never fails.
func (e *Engine) StartPolling(key string, probe func(context.Context) error, interval time.Duration, opts IntervalOptions) Handle {
	if key == "" {
		e.logger.Error("ignoring start with empty key")
		return Handle{}
	}
	if probe == nil {
		e.logger.Error("ignoring start with nil probe", "key", key)
		return Handle{}
	}
	if interval <= 0 {
		e.logger.Warn("non-positive interval corrected",
			"key", key, "interval", interval, "fallback", fallbackInterval)
		interval = fallbackInterval
	}

	op := &registry.Operation{
		Key:          key,
		Strategy:     registry.StrategyInterval,
		BaseInterval: interval,
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

		// arm the next period before probing; a slow probe may overlap it
		e.reg.ScheduleNext(t.Key, t.ID, tick)

		err := e.runProbe(ctx, t.Key, probe)

		attempt, ok := e.reg.Settle(t.Key, t.ID, err != nil)
		if !ok {
			// stopped while the probe was in flight
			return
		}
		if err != nil {
			e.notifyError(t.Key, opts.OnError, err)
		}

		switch decide(err != nil, attempt.Exhausted, true) {
		case outcomeExhausted:
			if e.reg.StopMatching(t.Key, t.ID) {
				e.logger.Debug("attempt budget exhausted",
					"key", t.Key, "attempts", attempt.Count)
				e.notifyError(t.Key, opts.OnError, ErrMaxAttempts)
			}
		case outcomeContinue:
			if attempt.DelayChanged {
				// replace the live period so the new delay takes
				// effect with the next tick, not the one after
				e.reg.ScheduleNext(t.Key, t.ID, tick)
			}
		}
	}

	first := interval
	if opts.Immediate {
		first = 0
	}
	e.reg.ScheduleAfter(t.Key, t.ID, first, tick)

	e.logger.Debug("interval polling started",
		"key", key, "interval", interval, "immediate", opts.Immediate)
	return h
}
