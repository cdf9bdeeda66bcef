package track

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/heyarsen/jobpoll"
	"github.com/heyarsen/jobpoll/clock"
)

const (
	defaultGenerationDelay   = 5 * time.Second
	defaultGenerationTimeout = 5 * time.Minute

	generationKeyPrefix = "generation:"
)

// Stage is the caller-facing progress state of an AI-avatar generation job.
//
// Stages only move forward: creating, then photos_ready, then completing,
// then one of completed or failed. A tracker never reports an earlier stage
// after a later one.
type Stage string

const (
	// StageCreating means the generation request has been submitted.
	StageCreating Stage = "creating"

	// StagePhotosReady means the backend has started producing output.
	StagePhotosReady Stage = "photos_ready"

	// StageCompleting means the job reported success and the result is
	// being finalized.
	StageCompleting Stage = "completing"

	// StageCompleted is the successful end state.
	StageCompleted Stage = "completed"

	// StageFailed is the failure end state, reached on a failed status,
	// an exhausted attempt budget, or the wall-clock cutoff.
	StageFailed Stage = "failed"
)

// stageRank orders stages so progress is monotonic.
var stageRank = map[Stage]int{
	StageCreating:    0,
	StagePhotosReady: 1,
	StageCompleting:  2,
	StageCompleted:   3,
	StageFailed:      3,
}

// GenerationTracker watches AI-avatar generation jobs with a recursive
// 5-second poll and reports progress through a staged state machine.
//
// Beyond any attempt budget, a wall-clock guard cancels the operation if it
// is still registered after the configured timeout. The guard is
// independent of tick counting: backed-off ticks slow the budget down, the
// guard does not move.
type GenerationTracker struct {
	eng         *jobpoll.Engine
	clk         clock.Clock
	logger      *slog.Logger
	delay       time.Duration
	timeout     time.Duration
	maxAttempts int
	onStage     func(id string, stage Stage)
	onError     func(id string, err error)
}

// GenerationOption configures a [GenerationTracker] during construction.
type GenerationOption func(*GenerationTracker) error

// WithGenerationDelay sets the reschedule delay between status checks.
// Defaults to 5 seconds. Returns an error if the duration is zero or
// negative.
func WithGenerationDelay(d time.Duration) GenerationOption {
	return func(g *GenerationTracker) error {
		if d <= 0 {
			return errors.New("generation delay must be positive")
		}
		g.delay = d
		return nil
	}
}

// WithGenerationTimeout sets the wall-clock cutoff after which a still
// running job is cancelled and reported failed. Defaults to 5 minutes.
// Returns an error if the duration is zero or negative.
func WithGenerationTimeout(d time.Duration) GenerationOption {
	return func(g *GenerationTracker) error {
		if d <= 0 {
			return errors.New("generation timeout must be positive")
		}
		g.timeout = d
		return nil
	}
}

// WithGenerationMaxAttempts sets a probe budget in addition to the
// wall-clock cutoff. Defaults to 0, unlimited; the cutoff alone bounds the
// job. Returns an error if the value is negative.
func WithGenerationMaxAttempts(n int) GenerationOption {
	return func(g *GenerationTracker) error {
		if n < 0 {
			return errors.New("max attempts cannot be negative")
		}
		g.maxAttempts = n
		return nil
	}
}

// WithGenerationClock sets the clock the wall-clock guard schedules
// through. Inject the same [clock.Fake] given to the engine to test the
// cutoff with virtual time. Defaults to [clock.System]. Returns an error if
// the clock is nil.
func WithGenerationClock(clk clock.Clock) GenerationOption {
	return func(g *GenerationTracker) error {
		if clk == nil {
			return errors.New("clock cannot be nil")
		}
		g.clk = clk
		return nil
	}
}

// WithGenerationLogger sets the logger for probe failures and lifecycle
// events. Defaults to [slog.Default]. Returns an error if the logger is nil.
func WithGenerationLogger(logger *slog.Logger) GenerationOption {
	return func(g *GenerationTracker) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		g.logger = logger
		return nil
	}
}

// WithOnStage sets the callback fired on every forward stage transition.
func WithOnStage(fn func(id string, stage Stage)) GenerationOption {
	return func(g *GenerationTracker) error {
		g.onStage = fn
		return nil
	}
}

// WithOnGenerationError sets the callback for terminal errors: an
// exhausted attempt budget or the wall-clock cutoff ([ErrTimedOut]).
// Transient probe failures are logged, not reported here.
func WithOnGenerationError(fn func(id string, err error)) GenerationOption {
	return func(g *GenerationTracker) error {
		g.onError = fn
		return nil
	}
}

// NewGenerationTracker creates a [GenerationTracker] polling through eng.
//
// Returns an error if eng is nil or any option is invalid.
func NewGenerationTracker(eng *jobpoll.Engine, opts ...GenerationOption) (*GenerationTracker, error) {
	if eng == nil {
		return nil, errors.New("engine cannot be nil")
	}

	g := &GenerationTracker{
		eng:     eng,
		clk:     clock.System(),
		logger:  slog.Default(),
		delay:   defaultGenerationDelay,
		timeout: defaultGenerationTimeout,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Track begins watching the generation job identified by id.
//
// The stage machine starts at [StageCreating] immediately. If id is already
// being tracked, the returned handle refers to the existing operation and
// no new stage machine starts.
func (g *GenerationTracker) Track(id string, check StatusFunc) jobpoll.Handle {
	if id == "" || check == nil {
		g.logger.Error("ignoring generation track with missing id or check")
		return jobpoll.Handle{}
	}

	key := generationKeyPrefix + id
	if h, ok := g.eng.Lookup(key); ok {
		// already tracked; no second stage machine or guard
		return h
	}

	var mu sync.Mutex
	current := Stage("")
	emit := func(stage Stage) {
		mu.Lock()
		if prev, ok := stageRank[current]; ok && stageRank[stage] <= prev {
			mu.Unlock()
			return
		}
		current = stage
		mu.Unlock()
		g.logger.Debug("generation stage", "id", id, "stage", stage)
		if g.onStage != nil {
			g.onStage(id, stage)
		}
	}

	// the guard can race a budget exhaustion; first terminal error wins
	var failOnce sync.Once
	fail := func(err error) {
		failOnce.Do(func() {
			if g.onError != nil {
				g.onError(id, err)
			}
		})
	}

	emit(StageCreating)

	probe := func(ctx context.Context) (Status, error) {
		status, err := check(ctx)
		if err != nil {
			return status, err
		}
		if status == StatusGenerating {
			emit(StagePhotosReady)
		}
		return status, nil
	}

	h := jobpoll.StartRecursive(g.eng, key, probe, g.delay, jobpoll.RecursiveOptions[Status]{
		ShouldContinue: notTerminalGeneration,
		MaxAttempts:    g.maxAttempts,
		OnComplete: func(status Status) {
			if status == StatusSuccess {
				emit(StageCompleting)
				emit(StageCompleted)
				return
			}
			emit(StageFailed)
		},
		OnError: func(err error) {
			if errors.Is(err, jobpoll.ErrMaxAttempts) {
				emit(StageFailed)
				fail(err)
				return
			}
			g.logger.Warn("generation status check failed", "id", id, "error", err)
		},
	})

	// belt-and-braces wall-clock cutoff, independent of tick counting
	guard := g.clk.AfterFunc(g.timeout, func() {
		if !h.Active() {
			return
		}
		h.Cancel()
		g.logger.Warn("generation timed out", "id", id, "timeout", g.timeout)
		emit(StageFailed)
		fail(ErrTimedOut)
	})
	if done := h.Done(); done != nil {
		go func() {
			<-done
			guard.Stop()
		}()
	} else {
		guard.Stop()
	}

	return h
}

// Tracking reports whether id is currently being watched.
func (g *GenerationTracker) Tracking(id string) bool {
	return g.eng.IsPolling(generationKeyPrefix + id)
}

// Stop stops watching id. Stopping an untracked id is a no-op.
func (g *GenerationTracker) Stop(id string) {
	g.eng.StopPolling(generationKeyPrefix + id)
}

func notTerminalGeneration(status Status) bool {
	return status != StatusSuccess && status != StatusFailed
}
