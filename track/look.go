package track

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/heyarsen/jobpoll"
	"github.com/heyarsen/jobpoll/clock"
)

const (
	defaultLookDelay       = 5 * time.Second
	defaultLookMaxAttempts = 60
	defaultLookTimeout     = 5 * time.Minute

	lookKeyPrefix = "look:"
)

// ErrTimedOut is reported when a tracked job is cancelled by the wall-clock
// cutoff: the job is taking longer than expected. Distinguish it from other
// terminal errors with [errors.Is].
var ErrTimedOut = errors.New("track: job is taking longer than expected")

// LookTracker watches look generation jobs with a recursive 5-second poll.
//
// The tracker layers two independent limits: an attempt budget of 60 probes
// (roughly 5 minutes at the base delay, longer under backoff) and a hard
// 5-minute wall-clock cutoff that cancels the operation and reports
// [ErrTimedOut]. Whichever fires first ends the job; OnDone fires exactly
// once either way.
type LookTracker struct {
	eng         *jobpoll.Engine
	clk         clock.Clock
	logger      *slog.Logger
	delay       time.Duration
	maxAttempts int
	timeout     time.Duration
	onDone      func(id string, status Status, err error)
}

// LookOption configures a [LookTracker] during construction.
type LookOption func(*LookTracker) error

// WithLookDelay sets the reschedule delay between status checks.
// Defaults to 5 seconds. Returns an error if the duration is zero or
// negative.
func WithLookDelay(d time.Duration) LookOption {
	return func(l *LookTracker) error {
		if d <= 0 {
			return errors.New("look delay must be positive")
		}
		l.delay = d
		return nil
	}
}

// WithLookMaxAttempts sets the probe budget. Defaults to 60. Zero disables
// the budget, leaving only the wall-clock cutoff. Returns an error if the
// value is negative.
func WithLookMaxAttempts(n int) LookOption {
	return func(l *LookTracker) error {
		if n < 0 {
			return errors.New("max attempts cannot be negative")
		}
		l.maxAttempts = n
		return nil
	}
}

// WithLookTimeout sets the wall-clock cutoff. Defaults to 5 minutes.
// Returns an error if the duration is zero or negative.
func WithLookTimeout(d time.Duration) LookOption {
	return func(l *LookTracker) error {
		if d <= 0 {
			return errors.New("look timeout must be positive")
		}
		l.timeout = d
		return nil
	}
}

// WithLookClock sets the clock the wall-clock guard schedules through.
// Inject the same [clock.Fake] given to the engine to test the cutoff with
// virtual time. Defaults to [clock.System]. Returns an error if the clock
// is nil.
func WithLookClock(clk clock.Clock) LookOption {
	return func(l *LookTracker) error {
		if clk == nil {
			return errors.New("clock cannot be nil")
		}
		l.clk = clk
		return nil
	}
}

// WithLookLogger sets the logger for probe failures and lifecycle events.
// Defaults to [slog.Default]. Returns an error if the logger is nil.
func WithLookLogger(logger *slog.Logger) LookOption {
	return func(l *LookTracker) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		l.logger = logger
		return nil
	}
}

// WithOnLookDone sets the callback fired exactly once when a tracked job
// ends. On success or failure reported by the backend, status carries the
// terminal value and err is nil. On an exhausted budget or the wall-clock
// cutoff, status is [StatusUnknown] and err is [jobpoll.ErrMaxAttempts] or
// [ErrTimedOut] respectively.
func WithOnLookDone(fn func(id string, status Status, err error)) LookOption {
	return func(l *LookTracker) error {
		l.onDone = fn
		return nil
	}
}

// NewLookTracker creates a [LookTracker] polling through eng.
//
// Returns an error if eng is nil or any option is invalid.
func NewLookTracker(eng *jobpoll.Engine, opts ...LookOption) (*LookTracker, error) {
	if eng == nil {
		return nil, errors.New("engine cannot be nil")
	}

	l := &LookTracker{
		eng:         eng,
		clk:         clock.System(),
		logger:      slog.Default(),
		delay:       defaultLookDelay,
		maxAttempts: defaultLookMaxAttempts,
		timeout:     defaultLookTimeout,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Track begins watching the look generation job identified by id.
//
// If id is already being tracked, the returned handle refers to the
// existing operation and no second guard is layered.
func (l *LookTracker) Track(id string, check StatusFunc) jobpoll.Handle {
	if id == "" || check == nil {
		l.logger.Error("ignoring look track with missing id or check")
		return jobpoll.Handle{}
	}

	key := lookKeyPrefix + id
	if h, ok := l.eng.Lookup(key); ok {
		return h
	}

	// the guard can race a natural completion; first report wins
	var once sync.Once
	done := func(status Status, err error) {
		once.Do(func() {
			if err != nil {
				l.logger.Warn("look generation ended", "id", id, "error", err)
			} else {
				l.logger.Info("look generation ended", "id", id, "status", status)
			}
			if l.onDone != nil {
				l.onDone(id, status, err)
			}
		})
	}

	h := jobpoll.StartRecursive(l.eng, key, check, l.delay, jobpoll.RecursiveOptions[Status]{
		ShouldContinue: func(status Status) bool {
			return status != StatusSuccess && status != StatusFailed
		},
		MaxAttempts: l.maxAttempts,
		OnComplete: func(status Status) {
			done(status, nil)
		},
		OnError: func(err error) {
			if errors.Is(err, jobpoll.ErrMaxAttempts) {
				done(StatusUnknown, err)
				return
			}
			l.logger.Warn("look status check failed", "id", id, "error", err)
		},
	})

	// independent hard cutoff: maxAttempts counts ticks, and ticks slow
	// down under backoff, so the budget alone cannot bound wall time
	guard := l.clk.AfterFunc(l.timeout, func() {
		if !h.Active() {
			return
		}
		h.Cancel()
		done(StatusUnknown, ErrTimedOut)
	})
	if doneCh := h.Done(); doneCh != nil {
		go func() {
			<-doneCh
			guard.Stop()
		}()
	} else {
		guard.Stop()
	}

	return h
}

// Tracking reports whether id is currently being watched.
func (l *LookTracker) Tracking(id string) bool {
	return l.eng.IsPolling(lookKeyPrefix + id)
}

// Stop stops watching id. Stopping an untracked id is a no-op.
func (l *LookTracker) Stop(id string) {
	l.eng.StopPolling(lookKeyPrefix + id)
}
