package clock

import "time"

// Clock abstracts time for the polling engine.
//
// The engine schedules every tick, debounce window, and wall-clock guard
// through a Clock rather than calling the time package directly. Production
// code uses [System]; tests inject a [Fake] and advance virtual time, which
// makes backoff and debounce behaviour deterministic and fast to verify.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules fn to run after d has elapsed and returns a
	// handle that can stop the pending call. Implementations run fn in
	// its own goroutine ([System]) or synchronously during [Fake.Advance].
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a handle to a callback scheduled via [Clock.AfterFunc].
type Timer interface {
	// Stop cancels the pending callback. It reports whether the call was
	// still pending; false means it already fired or was already stopped.
	Stop() bool
}

// System returns a [Clock] backed by the real time package.
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{t: time.AfterFunc(d, fn)}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) Stop() bool {
	return s.t.Stop()
}
