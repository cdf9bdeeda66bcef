package track

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heyarsen/jobpoll"
)

const (
	defaultTrainingInterval = 30 * time.Second

	trainingKeyPrefix = "training:"
)

// TrainingTracker watches avatar training jobs on a steady interval.
//
// Training status checks run every 30 seconds while the job reports an
// in-progress status. Probe errors are logged and retried on the next tick;
// they never slow or stop the cadence. When the job reports ready, the
// tracker maps it to [StatusActive], fires the OnReady callback, and stops
// polling that job.
type TrainingTracker struct {
	eng      *jobpoll.Engine
	logger   *slog.Logger
	interval time.Duration
	onReady  func(id string, status Status)
}

// TrainingOption configures a [TrainingTracker] during construction.
type TrainingOption func(*TrainingTracker) error

// WithTrainingInterval sets the polling cadence. Defaults to 30 seconds.
// Returns an error if the duration is zero or negative.
func WithTrainingInterval(d time.Duration) TrainingOption {
	return func(t *TrainingTracker) error {
		if d <= 0 {
			return errors.New("training interval must be positive")
		}
		t.interval = d
		return nil
	}
}

// WithTrainingLogger sets the logger for probe failures and lifecycle
// events. Defaults to [slog.Default]. Returns an error if the logger is nil.
func WithTrainingLogger(logger *slog.Logger) TrainingOption {
	return func(t *TrainingTracker) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		t.logger = logger
		return nil
	}
}

// WithOnReady sets the callback fired once when a tracked job finishes
// training. The status passed is always [StatusActive], the caller-facing
// mapping of the backend's ready state.
func WithOnReady(fn func(id string, status Status)) TrainingOption {
	return func(t *TrainingTracker) error {
		t.onReady = fn
		return nil
	}
}

// NewTrainingTracker creates a [TrainingTracker] polling through eng.
//
// Returns an error if eng is nil or any option is invalid.
func NewTrainingTracker(eng *jobpoll.Engine, opts ...TrainingOption) (*TrainingTracker, error) {
	if eng == nil {
		return nil, errors.New("engine cannot be nil")
	}

	t := &TrainingTracker{
		eng:      eng,
		logger:   slog.Default(),
		interval: defaultTrainingInterval,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Track begins watching the training job identified by id.
//
// The check function is called once per interval. If id is already being
// tracked, the returned handle refers to the existing operation.
func (t *TrainingTracker) Track(id string, check StatusFunc) jobpoll.Handle {
	if id == "" || check == nil {
		t.logger.Error("ignoring training track with missing id or check")
		return jobpoll.Handle{}
	}

	key := trainingKeyPrefix + id
	probe := func(ctx context.Context) error {
		status, err := check(ctx)
		if err != nil {
			// surfaced by the engine log; the cadence continues
			return err
		}

		switch status {
		case StatusReady, StatusActive:
			// stop first so a late tick cannot double-fire
			if t.eng.StopPolling(key) {
				t.logger.Info("training complete", "id", id)
				if t.onReady != nil {
					t.onReady(id, StatusActive)
				}
			}
		case StatusFailed:
			if t.eng.StopPolling(key) {
				t.logger.Warn("training failed", "id", id)
			}
		default:
			t.logger.Debug("training in progress", "id", id, "status", status)
		}
		return nil
	}

	// fixed cadence: probe errors must not stretch the 30s interval
	return t.eng.StartPolling(key, probe, t.interval, jobpoll.IntervalOptions{
		DisableBackoff: true,
	})
}

// Tracking reports whether id is currently being watched.
func (t *TrainingTracker) Tracking(id string) bool {
	return t.eng.IsPolling(trainingKeyPrefix + id)
}

// Stop stops watching id. Stopping an untracked id is a no-op.
func (t *TrainingTracker) Stop(id string) {
	t.eng.StopPolling(trainingKeyPrefix + id)
}
