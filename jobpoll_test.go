package jobpoll

import (
	"context"
	"testing"
	"time"
)

// TestNew_Defaults verifies that a bare New succeeds and yields a working
// engine with no active operations.
func TestNew_Defaults(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.StopAll()

	if keys := eng.ActiveKeys(); len(keys) != 0 {
		t.Errorf("ActiveKeys() = %v, want empty", keys)
	}
	if eng.IsPolling("anything") {
		t.Error("IsPolling = true on a fresh engine")
	}
}

// TestNew_OptionValidation verifies that invalid options surface as
// construction errors.
func TestNew_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil logger", WithLogger(nil)},
		{"nil clock", WithClock(nil)},
		{"nil context", WithContext(nil)},
		{"zero max delay", WithMaxDelay(0)},
		{"negative max delay", WithMaxDelay(-time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); err == nil {
				t.Error("New() succeeded, want validation error")
			}
		})
	}
}

// TestEngine_StopAll verifies the teardown hook: every operation stops,
// every key reports inactive, and no further probe fires.
func TestEngine_StopAll(t *testing.T) {
	eng, clk := newTestEngine(t)

	var calls int
	probe := func(context.Context) error {
		calls++
		return nil
	}
	eng.StartPolling("a", probe, time.Second, IntervalOptions{})
	eng.StartPolling("b", probe, time.Second, IntervalOptions{})
	StartRecursive(eng, "c", func(context.Context) (int, error) {
		calls++
		return 0, nil
	}, time.Second, RecursiveOptions[int]{ShouldContinue: func(int) bool { return true }})

	clk.Advance(time.Second)
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}

	eng.StopAll()

	if keys := eng.ActiveKeys(); len(keys) != 0 {
		t.Errorf("ActiveKeys() after StopAll = %v, want empty", keys)
	}
	clk.Advance(time.Minute)
	if calls != 3 {
		t.Errorf("calls after StopAll = %d, want 3", calls)
	}
}

// TestEngine_ActiveKeysSorted verifies the snapshot is sorted and tracks
// stops.
func TestEngine_ActiveKeysSorted(t *testing.T) {
	eng, _ := newTestEngine(t)

	probe := func(context.Context) error { return nil }
	eng.StartPolling("zebra", probe, time.Second, IntervalOptions{})
	eng.StartPolling("alpha", probe, time.Second, IntervalOptions{})
	eng.StartPolling("mid", probe, time.Second, IntervalOptions{})

	want := []string{"alpha", "mid", "zebra"}
	got := eng.ActiveKeys()
	if len(got) != len(want) {
		t.Fatalf("ActiveKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ActiveKeys() = %v, want %v", got, want)
		}
	}

	eng.StopPolling("mid")
	if got := eng.ActiveKeys(); len(got) != 2 {
		t.Errorf("ActiveKeys() after stop = %v, want 2 keys", got)
	}
}

// TestEngine_ContextTeardown verifies that cancelling the engine's owning
// context stops every operation, the page-unload analogue.
func TestEngine_ContextTeardown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := New(WithLogger(testLogger()), WithContext(ctx))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.StopAll()

	h := eng.StartPolling("job", func(context.Context) error { return nil },
		time.Hour, IntervalOptions{})

	cancel()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("operation not stopped after context cancellation")
	}
	if eng.IsPolling("job") {
		t.Error("IsPolling = true after context teardown")
	}
}

// TestHandle_StaleGenerationCannotCancelNewer verifies the generation
// guard: a handle from a finished operation is inert against a newer
// operation under the same key.
func TestHandle_StaleGenerationCannotCancelNewer(t *testing.T) {
	eng, clk := newTestEngine(t)

	probe := func(context.Context) error { return nil }
	h1 := eng.StartPolling("job", probe, time.Second, IntervalOptions{})
	h1.Cancel()

	var calls int
	eng.StartPolling("job", func(context.Context) error {
		calls++
		return nil
	}, time.Second, IntervalOptions{})

	// stale handle: same key, older generation
	h1.Cancel()
	if h1.Active() {
		t.Error("stale handle reports active")
	}
	if !eng.IsPolling("job") {
		t.Fatal("newer operation was cancelled by a stale handle")
	}

	clk.Advance(3 * time.Second)
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

// TestHandle_DoneClosedOnCompletion verifies that Done observes every way
// an operation can end.
func TestHandle_DoneClosedOnCompletion(t *testing.T) {
	eng, clk := newTestEngine(t)

	h := StartRecursive(eng, "job", func(context.Context) (string, error) {
		return "done", nil
	}, time.Second, RecursiveOptions[string]{
		ShouldContinue: func(s string) bool { return s != "done" },
	})

	select {
	case <-h.Done():
		t.Fatal("Done() closed before the operation ended")
	default:
	}

	clk.Advance(time.Second)

	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed after completion")
	}
	if h.Active() {
		t.Error("Active() = true after completion")
	}
}

// TestHandle_ZeroValueInert verifies the zero Handle is safe to use.
func TestHandle_ZeroValueInert(t *testing.T) {
	var h Handle
	h.Cancel()
	if h.Active() {
		t.Error("zero Handle reports active")
	}
	if h.Done() != nil {
		t.Error("zero Handle Done() != nil")
	}
	if h.Key() != "" {
		t.Errorf("zero Handle Key() = %q, want empty", h.Key())
	}
}

// TestEngine_IndependentKeysIsolated verifies that backoff state is
// per-key: one key's failures do not slow a healthy key.
func TestEngine_IndependentKeysIsolated(t *testing.T) {
	eng, clk := newTestEngine(t)

	var healthy, failing int
	eng.StartPolling("healthy", func(context.Context) error {
		healthy++
		return nil
	}, time.Second, IntervalOptions{})
	eng.StartPolling("failing", func(context.Context) error {
		failing++
		return context.DeadlineExceeded
	}, time.Second, IntervalOptions{OnError: func(error) {}})

	clk.Advance(7 * time.Second)

	if healthy != 7 {
		t.Errorf("healthy calls = %d, want 7 (steady cadence)", healthy)
	}
	// failing key backed off: ticks at 1s, 3s, 7s
	if failing != 3 {
		t.Errorf("failing calls = %d, want 3 (backed off)", failing)
	}
}
