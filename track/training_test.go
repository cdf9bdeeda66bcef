package track

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/heyarsen/jobpoll"
	"github.com/heyarsen/jobpoll/clock"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTrackEngine creates an engine driven by a fake clock for tracker tests.
func newTrackEngine(t *testing.T) (*jobpoll.Engine, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake()
	eng, err := jobpoll.New(jobpoll.WithLogger(testLogger()), jobpoll.WithClock(clk))
	if err != nil {
		t.Fatalf("jobpoll.New() error = %v", err)
	}
	t.Cleanup(eng.StopAll)
	return eng, clk
}

// statusSequence returns a StatusFunc that walks the given statuses,
// repeating the last one, and counts invocations through calls.
func statusSequence(calls *int, statuses ...Status) StatusFunc {
	return func(context.Context) (Status, error) {
		i := *calls
		*calls++
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		return statuses[i], nil
	}
}

// TestTrainingTracker_ReadyMapsToActive verifies the completion path: a
// ready status fires OnReady once with the active mapping and ends
// tracking.
func TestTrainingTracker_ReadyMapsToActive(t *testing.T) {
	eng, clk := newTrackEngine(t)

	var ready []Status
	tr, err := NewTrainingTracker(eng,
		WithTrainingLogger(testLogger()),
		WithOnReady(func(id string, status Status) {
			if id != "42" {
				t.Errorf("OnReady id = %q, want %q", id, "42")
			}
			ready = append(ready, status)
		}),
	)
	if err != nil {
		t.Fatalf("NewTrainingTracker() error = %v", err)
	}

	var calls int
	tr.Track("42", statusSequence(&calls, StatusPending, StatusTraining, StatusReady))

	clk.Advance(time.Hour)

	if calls != 3 {
		t.Errorf("status checks = %d, want 3", calls)
	}
	if len(ready) != 1 || ready[0] != StatusActive {
		t.Errorf("OnReady statuses = %v, want [active]", ready)
	}
	if tr.Tracking("42") {
		t.Error("Tracking() = true after completion")
	}
}

// TestTrainingTracker_ErrorsKeepCadence verifies the silent-retry policy:
// check failures never slow or stop the 30-second interval.
func TestTrainingTracker_ErrorsKeepCadence(t *testing.T) {
	eng, clk := newTrackEngine(t)

	tr, err := NewTrainingTracker(eng, WithTrainingLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewTrainingTracker() error = %v", err)
	}

	var calls int
	tr.Track("42", func(context.Context) (Status, error) {
		calls++
		return StatusUnknown, errors.New("network down")
	})

	clk.Advance(5 * defaultTrainingInterval)

	if calls != 5 {
		t.Errorf("status checks = %d, want 5 (fixed 30s cadence)", calls)
	}
	if !tr.Tracking("42") {
		t.Error("Tracking() = false, want true (errors are not fatal)")
	}
}

// TestTrainingTracker_FailedStopsWithoutReady verifies a failed training
// ends tracking but never fires OnReady.
func TestTrainingTracker_FailedStopsWithoutReady(t *testing.T) {
	eng, clk := newTrackEngine(t)

	var readyCalls int
	tr, err := NewTrainingTracker(eng,
		WithTrainingLogger(testLogger()),
		WithOnReady(func(string, Status) { readyCalls++ }),
	)
	if err != nil {
		t.Fatalf("NewTrainingTracker() error = %v", err)
	}

	var calls int
	tr.Track("42", statusSequence(&calls, StatusTraining, StatusFailed))

	clk.Advance(time.Hour)

	if calls != 2 {
		t.Errorf("status checks = %d, want 2", calls)
	}
	if readyCalls != 0 {
		t.Errorf("OnReady calls = %d, want 0", readyCalls)
	}
	if tr.Tracking("42") {
		t.Error("Tracking() = true after failure")
	}
}

// TestTrainingTracker_CustomInterval verifies WithTrainingInterval.
func TestTrainingTracker_CustomInterval(t *testing.T) {
	eng, clk := newTrackEngine(t)

	tr, err := NewTrainingTracker(eng,
		WithTrainingLogger(testLogger()),
		WithTrainingInterval(10*time.Second),
	)
	if err != nil {
		t.Fatalf("NewTrainingTracker() error = %v", err)
	}

	var calls int
	tr.Track("42", func(context.Context) (Status, error) {
		calls++
		return StatusTraining, nil
	})

	clk.Advance(30 * time.Second)
	if calls != 3 {
		t.Errorf("status checks = %d, want 3 (10s cadence)", calls)
	}
}

// TestTrainingTracker_StopEndsTracking verifies Stop.
func TestTrainingTracker_StopEndsTracking(t *testing.T) {
	eng, clk := newTrackEngine(t)

	tr, err := NewTrainingTracker(eng, WithTrainingLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewTrainingTracker() error = %v", err)
	}

	var calls int
	tr.Track("42", func(context.Context) (Status, error) {
		calls++
		return StatusTraining, nil
	})

	clk.Advance(defaultTrainingInterval)
	tr.Stop("42")
	clk.Advance(time.Hour)

	if calls != 1 {
		t.Errorf("status checks = %d, want 1", calls)
	}
	if tr.Tracking("42") {
		t.Error("Tracking() = true after Stop")
	}
}

// TestTrainingTracker_Validation verifies constructor and Track argument
// checks.
func TestTrainingTracker_Validation(t *testing.T) {
	if _, err := NewTrainingTracker(nil); err == nil {
		t.Error("NewTrainingTracker(nil) succeeded, want error")
	}

	eng, _ := newTrackEngine(t)
	if _, err := NewTrainingTracker(eng, WithTrainingInterval(0)); err == nil {
		t.Error("zero interval accepted, want error")
	}
	if _, err := NewTrainingTracker(eng, WithTrainingLogger(nil)); err == nil {
		t.Error("nil logger accepted, want error")
	}

	tr, err := NewTrainingTracker(eng, WithTrainingLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewTrainingTracker() error = %v", err)
	}
	if h := tr.Track("", func(context.Context) (Status, error) { return StatusReady, nil }); h.Active() {
		t.Error("Track with empty id returned an active handle")
	}
	if h := tr.Track("42", nil); h.Active() {
		t.Error("Track with nil check returned an active handle")
	}
}
