package track

import (
	"testing"
	"time"
)

// TestNewJob verifies construction defaults.
func TestNewJob(t *testing.T) {
	job, err := NewJob("avatar-42", KindTraining, "https://api.example.com/status")
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	if job.Name() != "avatar-42" {
		t.Errorf("Name() = %q, want %q", job.Name(), "avatar-42")
	}
	if job.Kind() != KindTraining {
		t.Errorf("Kind() = %v, want %v", job.Kind(), KindTraining)
	}
	if job.Timeout() != defaultJobTimeout {
		t.Errorf("Timeout() = %v, want %v", job.Timeout(), defaultJobTimeout)
	}
	if job.Interval() != 0 {
		t.Errorf("Interval() = %v, want 0 (tracker default)", job.Interval())
	}
	if job.Extractor() != nil {
		t.Error("Extractor() != nil, want nil (probe layer applies default)")
	}
}

// TestNewJob_Validation verifies construction failures.
func TestNewJob_Validation(t *testing.T) {
	tests := []struct {
		name    string
		jobName string
		kind    Kind
		url     string
		opts    []JobOption
	}{
		{"empty name", "", KindTraining, "https://example.com", nil},
		{"unknown kind", "j", Kind("video"), "https://example.com", nil},
		{"no scheme", "j", KindLook, "example.com/status", nil},
		{"invalid url", "j", KindLook, "://bad", nil},
		{"odd headers", "j", KindTraining, "https://example.com", []JobOption{WithHeaders("only-key")}},
		{"zero timeout", "j", KindTraining, "https://example.com", []JobOption{WithTimeout(0)}},
		{"bad method", "j", KindTraining, "https://example.com", []JobOption{WithMethod("DELETE")}},
		{"interval too short", "j", KindTraining, "https://example.com", []JobOption{WithInterval(time.Millisecond)}},
		{"interval too long", "j", KindTraining, "https://example.com", []JobOption{WithInterval(2 * time.Hour)}},
		{"negative max attempts", "j", KindTraining, "https://example.com", []JobOption{WithMaxAttempts(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewJob(tt.jobName, tt.kind, tt.url, tt.opts...); err == nil {
				t.Error("NewJob() succeeded, want error")
			}
		})
	}
}

// TestJob_HeadersCopied verifies the getter returns a copy, keeping the job
// immutable.
func TestJob_HeadersCopied(t *testing.T) {
	job, err := NewJob("j", KindLook, "https://example.com",
		WithHeaders("Authorization", "Bearer tok"))
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	headers := job.Headers()
	headers["Authorization"] = "tampered"

	if job.Headers()["Authorization"] != "Bearer tok" {
		t.Error("mutating the returned map changed the job's headers")
	}
}

// TestJob_HeadersNeverNil verifies that a job without custom headers still
// returns a usable empty map, so callers can range over it without a nil
// check.
func TestJob_HeadersNeverNil(t *testing.T) {
	job, err := NewJob("j", KindLook, "https://example.com")
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	headers := job.Headers()
	if headers == nil {
		t.Fatal("Headers() = nil, want empty map")
	}
	if len(headers) != 0 {
		t.Errorf("Headers() = %v, want empty", headers)
	}
}

// TestJob_Options verifies option values land on the job.
func TestJob_Options(t *testing.T) {
	extractor := JSONFieldExtractor("data.status")
	job, err := NewJob("j", KindGeneration, "https://example.com",
		WithMethod("POST"),
		WithTimeout(3*time.Second),
		WithInterval(10*time.Second),
		WithMaxAttempts(12),
		WithExtractor(extractor),
	)
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	if job.Method() != "POST" {
		t.Errorf("Method() = %q, want POST", job.Method())
	}
	if job.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", job.Timeout())
	}
	if job.Interval() != 10*time.Second {
		t.Errorf("Interval() = %v, want 10s", job.Interval())
	}
	if job.MaxAttempts() != 12 {
		t.Errorf("MaxAttempts() = %d, want 12", job.MaxAttempts())
	}
	if job.Extractor() == nil {
		t.Error("Extractor() = nil, want the configured extractor")
	}
}
