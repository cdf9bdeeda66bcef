package clock

import (
	"sync"
	"time"
)

// fakeEpoch is the starting instant for every [Fake] clock. The value is
// arbitrary; tests should compare elapsed durations, not absolute times.
var fakeEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Fake is a [Clock] driven entirely by virtual time.
//
// Time only moves when [Fake.Advance] is called. Due callbacks run
// synchronously inside Advance, in deadline order (scheduling order breaks
// ties), so when Advance returns every tick that fell inside the window has
// fully executed. Callbacks may schedule further timers; a timer scheduled
// during Advance whose deadline still falls inside the window fires in the
// same call.
//
// Callbacks must not call Advance themselves.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

// NewFake creates a [Fake] clock positioned at a fixed epoch.
func NewFake() *Fake {
	return &Fake{now: fakeEpoch}
}

// Now returns the current virtual time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn at now+d in virtual time. Negative durations are
// treated as zero. The callback does not run until [Fake.Advance] reaches
// its deadline; AfterFunc(0, fn) fires on the next Advance call, including
// Advance(0).
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{
		clk:      f,
		deadline: f.now.Add(d),
		seq:      f.seq,
		fn:       fn,
	}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves virtual time forward by d, firing every due timer in
// deadline order before returning.
func (f *Fake) Advance(d time.Duration) {
	if d < 0 {
		return
	}

	f.mu.Lock()
	target := f.now.Add(d)

	for {
		next := f.nextDueLocked(target)
		if next == nil {
			break
		}
		f.removeLocked(next)
		if next.deadline.After(f.now) {
			f.now = next.deadline
		}

		// run the callback without holding the lock so it can
		// schedule or stop timers
		f.mu.Unlock()
		next.fn()
		f.mu.Lock()
	}

	f.now = target
	f.mu.Unlock()
}

// Pending returns the number of timers that have not yet fired or been
// stopped. Useful for asserting that an operation released its timers.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// nextDueLocked returns the timer with the earliest deadline at or before
// target, or nil if none is due. Ties resolve in scheduling order.
func (f *Fake) nextDueLocked(target time.Time) *fakeTimer {
	var due *fakeTimer
	for _, t := range f.timers {
		if t.deadline.After(target) {
			continue
		}
		if due == nil || t.deadline.Before(due.deadline) ||
			(t.deadline.Equal(due.deadline) && t.seq < due.seq) {
			due = t
		}
	}
	return due
}

func (f *Fake) removeLocked(t *fakeTimer) {
	for i, cur := range f.timers {
		if cur == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

type fakeTimer struct {
	clk      *Fake
	deadline time.Time
	seq      int
	fn       func()
}

// Stop removes the timer if it has not fired yet.
func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()

	for i, cur := range t.clk.timers {
		if cur == t {
			t.clk.timers = append(t.clk.timers[:i], t.clk.timers[i+1:]...)
			return true
		}
	}
	return false
}
