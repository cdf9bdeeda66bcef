package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heyarsen/jobpoll/clock"
	"github.com/heyarsen/jobpoll/internal/backoff"
)

// Strategy identifies which scheduling discipline owns an operation's timer.
type Strategy string

const (
	// StrategyInterval ticks on a fixed period; probes may overlap.
	StrategyInterval Strategy = "interval"

	// StrategyRecursive schedules the next tick only after the previous
	// probe settles; probes never overlap.
	StrategyRecursive Strategy = "recursive"
)

// Operation is one live polling job tracker.
//
// The caller fills the configuration fields (Key, Strategy, BaseInterval,
// MaxDelay, MaxAttempts, Backoff) before passing the operation to
// [Registry.Register]. The registry owns all remaining state and mutates it
// under its lock; callers must not touch an Operation after registering it.
type Operation struct {
	// Key is the caller-chosen identity; the registry guarantees at most
	// one active operation per key.
	Key string

	// Strategy records which poller owns this operation.
	Strategy Strategy

	// BaseInterval is the delay between ticks when the operation is healthy.
	BaseInterval time.Duration

	// MaxDelay caps backed-off delays for this operation.
	MaxDelay time.Duration

	// MaxAttempts stops the operation after this many probe invocations.
	// Zero means unbounded.
	MaxAttempts int

	// Backoff enables exponential delay growth on consecutive failures.
	Backoff bool

	// state owned by the registry
	id            string
	attempts      int
	failureStreak int
	currentDelay  time.Duration
	active        bool
	timer         clock.Timer
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
}

// Ticket identifies one registered generation of an operation.
//
// A Ticket is what start calls hand back to callers (wrapped in a handle):
// the key, the generation ID, and a channel closed when the operation ends.
type Ticket struct {
	Key  string
	ID   string
	Done <-chan struct{}
}

// Attempt describes the state of an operation after one probe settled.
type Attempt struct {
	// Count is the total number of probe invocations so far.
	Count int

	// FailureStreak is the number of consecutive failures, zero after a
	// success.
	FailureStreak int

	// Delay is the effective delay before the next tick.
	Delay time.Duration

	// DelayChanged reports whether Delay differs from the delay in force
	// when the probe started. The interval poller uses this to tear down
	// and recreate its live period.
	DelayChanged bool

	// Exhausted reports that Count has reached the operation's attempt
	// budget. The poller must stop the operation and surface a terminal
	// error.
	Exhausted bool
}

// Registry is the in-memory table of active polling operations.
//
// It enforces the dedup guarantee (at most one active operation per key),
// owns every operation's timer and failure counter, and tracks pending
// debounce windows. All methods are safe for concurrent use.
type Registry struct {
	clk clock.Clock

	mu       sync.Mutex
	ops      map[string]*Operation
	failures map[string]int
	pending  map[string]*pendingStart
}

type pendingStart struct {
	timer clock.Timer
}

// New creates an empty [Registry] scheduling through clk.
func New(clk clock.Clock) *Registry {
	return &Registry{
		clk:      clk,
		ops:      make(map[string]*Operation),
		failures: make(map[string]int),
		pending:  make(map[string]*pendingStart),
	}
}

// Register inserts op as the active operation for its key.
//
// If an active operation already owns the key, Register returns that
// operation's ticket and false; this is the dedup guarantee, not an error.
// Otherwise the operation is activated, assigned a fresh generation ID, and
// its ticket is returned with true. Any pending debounce window for the key
// is superseded by the live operation.
func (r *Registry) Register(op *Operation) (Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.ops[op.Key]; ok && existing.active {
		return ticketLocked(existing), false
	}

	if op.MaxDelay <= 0 {
		op.MaxDelay = backoff.MaxDelay
	}

	op.id = uuid.NewString()
	op.attempts = 0
	op.failureStreak = r.failures[op.Key]
	op.currentDelay = backoff.DelayCapped(op.failureStreak, op.BaseInterval, op.MaxDelay)
	op.active = true
	op.ctx, op.cancel = context.WithCancel(context.Background())
	op.done = make(chan struct{})

	r.clearPendingLocked(op.Key)
	r.ops[op.Key] = op

	return ticketLocked(op), true
}

// Lookup returns the ticket of the active operation for key, if any.
func (r *Registry) Lookup(key string) (Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.ops[key]
	if !ok || !op.active {
		return Ticket{}, false
	}
	return ticketLocked(op), true
}

// IsPolling reports whether an active operation owns key.
func (r *Registry) IsPolling(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.ops[key]
	return ok && op.active
}

// Has reports whether any operation (active or mid-teardown) is present
// for key.
func (r *Registry) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.ops[key]
	return ok
}

// ActiveKeys returns a sorted snapshot of keys with active operations.
func (r *Registry) ActiveKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.ops))
	for key, op := range r.ops {
		if op.active {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Failures returns the consecutive-failure count recorded for key.
func (r *Registry) Failures(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures[key]
}

// HasPending reports whether a debounce window is pending for key.
func (r *Registry) HasPending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.pending[key]
	return ok
}

// BeginAttempt marks the start of one probe invocation.
//
// It returns the new attempt number and the operation's context. It fails
// (ok = false) when the operation is gone, inactive, or a different
// generation: a timer that fires after stop performs no work.
func (r *Registry) BeginAttempt(key, id string) (attempt int, ctx context.Context, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.matchLocked(key, id)
	if !ok {
		return 0, nil, false
	}

	op.attempts++
	return op.attempts, op.ctx, true
}

// Settle records the outcome of a settled probe and computes the delay for
// the next tick.
//
// On failure the key's failure counter is incremented and the delay grows
// per the backoff policy (when enabled for the operation). On success the
// counter resets and the delay reverts to the base interval. Settle fails
// (ok = false) if the operation was stopped while the probe was in flight;
// callers must not fire callbacks in that case.
func (r *Registry) Settle(key, id string, failed bool) (Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.matchLocked(key, id)
	if !ok {
		return Attempt{}, false
	}

	if failed {
		r.failures[key]++
	} else {
		delete(r.failures, key)
	}
	op.failureStreak = r.failures[key]

	previous := op.currentDelay
	if op.Backoff {
		op.currentDelay = backoff.DelayCapped(op.failureStreak, op.BaseInterval, op.MaxDelay)
	} else {
		op.currentDelay = op.BaseInterval
	}

	return Attempt{
		Count:         op.attempts,
		FailureStreak: op.failureStreak,
		Delay:         op.currentDelay,
		DelayChanged:  op.currentDelay != previous,
		Exhausted:     op.MaxAttempts > 0 && op.attempts >= op.MaxAttempts,
	}, true
}

// ScheduleAfter arms the operation's tick timer to fire fn after d,
// replacing any pending timer. It fails if the operation is stopped or a
// different generation.
func (r *Registry) ScheduleAfter(key, id string, d time.Duration, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.matchLocked(key, id)
	if !ok {
		return false
	}

	if op.timer != nil {
		op.timer.Stop()
	}
	op.timer = r.clk.AfterFunc(d, fn)
	return true
}

// ScheduleNext is [Registry.ScheduleAfter] using the operation's current
// (possibly backed-off) delay.
func (r *Registry) ScheduleNext(key, id string, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.matchLocked(key, id)
	if !ok {
		return false
	}

	if op.timer != nil {
		op.timer.Stop()
	}
	op.timer = r.clk.AfterFunc(op.currentDelay, fn)
	return true
}

// Debounce (re)schedules a pending start for key to fire after d.
//
// A second call for the same key before the window elapses replaces the
// pending timer (last call wins). The callback runs only if the window is
// still the registered one when it fires, so a superseded window that races
// its own replacement stays silent.
func (r *Registry) Debounce(key string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearPendingLocked(key)

	entry := &pendingStart{}
	entry.timer = r.clk.AfterFunc(d, func() {
		if r.takePending(key, entry) {
			fn()
		}
	})
	r.pending[key] = entry
}

// Stop deactivates and removes the operation for key.
//
// It releases the operation's timer, cancels its context, closes its done
// channel, and clears the key's failure counter and any pending debounce
// window. Stopping an absent or already-stopped key is a no-op.
func (r *Registry) Stop(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearPendingLocked(key)

	op, ok := r.ops[key]
	if !ok || !op.active {
		return false
	}
	r.stopLocked(op)
	return true
}

// StopMatching stops the operation for key only if its generation ID
// matches. A stale handle from a finished generation cannot cancel a newer
// operation under the same key.
func (r *Registry) StopMatching(key, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.matchLocked(key, id)
	if !ok {
		return false
	}
	r.stopLocked(op)
	return true
}

// StopAll stops every registered operation and clears every pending
// debounce window. Used on engine teardown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.pending {
		r.clearPendingLocked(key)
	}
	for _, op := range r.ops {
		if op.active {
			r.stopLocked(op)
		}
	}
}

// stopLocked tears down a single active operation. Caller holds r.mu.
func (r *Registry) stopLocked(op *Operation) {
	op.active = false
	if op.timer != nil {
		op.timer.Stop()
		op.timer = nil
	}
	op.cancel()
	close(op.done)
	delete(r.ops, op.Key)
	delete(r.failures, op.Key)
}

// matchLocked resolves key to its active operation if the generation ID
// matches. Caller holds r.mu.
func (r *Registry) matchLocked(key, id string) (*Operation, bool) {
	op, ok := r.ops[key]
	if !ok || !op.active || op.id != id {
		return nil, false
	}
	return op, true
}

func (r *Registry) clearPendingLocked(key string) {
	if entry, ok := r.pending[key]; ok {
		entry.timer.Stop()
		delete(r.pending, key)
	}
}

// takePending claims a fired debounce window. It returns true only if entry
// is still the registered window for key, removing it in that case.
func (r *Registry) takePending(key string, entry *pendingStart) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.pending[key]; ok && cur == entry {
		delete(r.pending, key)
		return true
	}
	return false
}

func ticketLocked(op *Operation) Ticket {
	return Ticket{Key: op.Key, ID: op.id, Done: op.done}
}
