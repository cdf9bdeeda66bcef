package jobpoll

import (
	"context"
	"time"
)

// StartDebounced delays the start of an interval polling operation to
// collapse bursts of start requests for the same key into one.
//
// If an operation for key is already active, the debounce is skipped and
// the returned [Handle] refers to the existing operation. Otherwise a
// debounce window of debounce is (re)armed; a second call with the same key
// before the window elapses replaces the pending window (last call wins,
// with the last call's probe and options). When the window fires, the
// operation starts exactly as [Engine.StartPolling] would.
//
// Cancelling the returned handle before the window fires clears the
// pending start; [Engine.StopPolling] does the same. The handle's Done
// channel is nil until the operation actually starts.
func (e *Engine) StartDebounced(key string, probe func(context.Context) error, interval, debounce time.Duration, opts IntervalOptions) Handle {
	if key == "" {
		e.logger.Error("ignoring start with empty key")
		return Handle{}
	}
	if probe == nil {
		e.logger.Error("ignoring start with nil probe", "key", key)
		return Handle{}
	}
	if debounce < 0 {
		debounce = 0
	}

	if t, ok := e.reg.Lookup(key); ok {
		// already polling; nothing to debounce
		return Handle{e: e, key: t.Key, id: t.ID, done: t.Done}
	}

	e.reg.Debounce(key, debounce, func() {
		e.StartPolling(key, probe, interval, opts)
	})

	e.logger.Debug("polling start debounced", "key", key, "debounce", debounce)
	return Handle{e: e, key: key}
}
