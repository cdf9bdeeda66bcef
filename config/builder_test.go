package config

import (
	"testing"
	"time"

	"github.com/heyarsen/jobpoll/track"
)

func TestBuildJobs(t *testing.T) {
	cfg, err := Parse([]byte(`
jobs:
  - name: avatar-42
    kind: training
    url: https://api.example.com/avatars/42/status
    timeout: 5s
    interval: 10s
    headers:
      Authorization: Bearer tok
  - name: look-7
    kind: look
    url: https://api.example.com/looks/7/status
    max_attempts: 30
    extractor: json:data.status
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	jobs, err := BuildJobs(cfg)
	if err != nil {
		t.Fatalf("BuildJobs() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}

	avatar := jobs[0]
	if avatar.Name() != "avatar-42" {
		t.Errorf("Name() = %q, want %q", avatar.Name(), "avatar-42")
	}
	if avatar.Kind() != track.KindTraining {
		t.Errorf("Kind() = %v, want %v", avatar.Kind(), track.KindTraining)
	}
	if avatar.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", avatar.Timeout())
	}
	if avatar.Interval() != 10*time.Second {
		t.Errorf("Interval() = %v, want 10s", avatar.Interval())
	}
	if avatar.Headers()["Authorization"] != "Bearer tok" {
		t.Errorf("Headers() = %v, want Authorization header", avatar.Headers())
	}
	if avatar.Extractor() != nil {
		t.Error("Extractor() != nil, want nil (default extractor)")
	}

	look := jobs[1]
	if look.Kind() != track.KindLook {
		t.Errorf("Kind() = %v, want %v", look.Kind(), track.KindLook)
	}
	if look.MaxAttempts() != 30 {
		t.Errorf("MaxAttempts() = %d, want 30", look.MaxAttempts())
	}
	if look.Extractor() == nil {
		t.Error("Extractor() = nil, want the configured json extractor")
	}
}

func TestBuildJobs_ExtractorBehaviour(t *testing.T) {
	cfg, err := Parse([]byte(`
jobs:
  - name: j1
    kind: generation
    url: https://example.com
    extractor: json:data.status
  - name: j2
    kind: generation
    url: https://example.com
    extractor:
      type: contains
      text: all done
      status: success
  - name: j3
    kind: generation
    url: https://example.com
    extractor: regex:state=(\w+)
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	jobs, err := BuildJobs(cfg)
	if err != nil {
		t.Fatalf("BuildJobs() error = %v", err)
	}

	tests := []struct {
		name string
		job  track.Job
		body string
		want track.Status
	}{
		{"json path", jobs[0], `{"data": {"status": "generating"}}`, track.StatusGenerating},
		{"contains", jobs[1], `work is ALL DONE here`, track.StatusSuccess},
		{"regex", jobs[2], `state=failed`, track.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := tt.job.Extractor()
			if extractor == nil {
				t.Fatal("Extractor() = nil")
			}
			if got := extractor([]byte(tt.body), 200); got != tt.want {
				t.Errorf("extractor(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestBuildJobs_SortedHeaderPairs(t *testing.T) {
	pairs := mapToKeyValuePairs(map[string]string{
		"Z-Last":  "z",
		"A-First": "a",
		"M-Mid":   "m",
	})

	want := []string{"A-First", "a", "M-Mid", "m", "Z-Last", "z"}
	if len(pairs) != len(want) {
		t.Fatalf("pairs = %v, want %v", pairs, want)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("pairs = %v, want %v", pairs, want)
		}
	}
}
