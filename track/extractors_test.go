package track

import "testing"

// TestJSONFieldExtractor verifies dot-path navigation and normalization.
func TestJSONFieldExtractor(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want Status
	}{
		{"top-level field", "status", `{"status": "pending"}`, StatusPending},
		{"nested field", "data.job.status", `{"data": {"job": {"status": "success"}}}`, StatusSuccess},
		{"synonym normalized", "status", `{"status": "Completed"}`, StatusSuccess},
		{"missing field", "status", `{"state": "pending"}`, StatusUnknown},
		{"wrong type", "status", `{"status": 42}`, StatusUnknown},
		{"path through non-object", "data.status", `{"data": "flat"}`, StatusUnknown},
		{"invalid json", "status", `not json`, StatusUnknown},
		{"unrecognized value", "status", `{"status": "banana"}`, StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := JSONFieldExtractor(tt.path)
			if got := extractor([]byte(tt.body), 200); got != tt.want {
				t.Errorf("JSONFieldExtractor(%q)(%q) = %v, want %v", tt.path, tt.body, got, tt.want)
			}
		})
	}
}

// TestRegexExtractor verifies capture-group extraction.
func TestRegexExtractor(t *testing.T) {
	extractor, err := RegexExtractor(`job is (\w+)`)
	if err != nil {
		t.Fatalf("RegexExtractor() error = %v", err)
	}

	if got := extractor([]byte("job is failed right now"), 200); got != StatusFailed {
		t.Errorf("matched body = %v, want %v", got, StatusFailed)
	}
	if got := extractor([]byte("no status here"), 200); got != StatusUnknown {
		t.Errorf("unmatched body = %v, want %v", got, StatusUnknown)
	}
}

// TestRegexExtractor_InvalidPattern verifies the compile error surfaces.
func TestRegexExtractor_InvalidPattern(t *testing.T) {
	if _, err := RegexExtractor(`[unclosed`); err == nil {
		t.Error("RegexExtractor() succeeded with invalid pattern")
	}
}

// TestMustRegexExtractor_Panics verifies fail-fast on invalid patterns.
func TestMustRegexExtractor_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegexExtractor did not panic on invalid pattern")
		}
	}()
	MustRegexExtractor(`[unclosed`)
}

// TestContainsExtractor verifies case-insensitive containment.
func TestContainsExtractor(t *testing.T) {
	extractor := ContainsExtractor("done", StatusSuccess)

	if got := extractor([]byte("Job DONE."), 200); got != StatusSuccess {
		t.Errorf("containing body = %v, want %v", got, StatusSuccess)
	}
	if got := extractor([]byte("still working"), 200); got != StatusUnknown {
		t.Errorf("non-containing body = %v, want %v", got, StatusUnknown)
	}
}

// TestFirstMatch verifies fallback composition.
func TestFirstMatch(t *testing.T) {
	extractor := FirstMatch(
		JSONFieldExtractor("status"),
		ContainsExtractor("working", StatusGenerating),
	)

	if got := extractor([]byte(`{"status": "failed"}`), 200); got != StatusFailed {
		t.Errorf("first extractor result = %v, want %v", got, StatusFailed)
	}
	if got := extractor([]byte("still working on it"), 200); got != StatusGenerating {
		t.Errorf("fallback result = %v, want %v", got, StatusGenerating)
	}
	if got := extractor([]byte("nothing to see"), 200); got != StatusUnknown {
		t.Errorf("no-match result = %v, want %v", got, StatusUnknown)
	}
}

// TestDefaultExtractor verifies the status-then-state field order.
func TestDefaultExtractor(t *testing.T) {
	if got := DefaultExtractor([]byte(`{"status": "pending"}`), 200); got != StatusPending {
		t.Errorf("status field = %v, want %v", got, StatusPending)
	}
	if got := DefaultExtractor([]byte(`{"state": "running"}`), 200); got != StatusGenerating {
		t.Errorf("state field = %v, want %v", got, StatusGenerating)
	}
}
