package track

import (
	"context"
	"strings"
)

// Status represents the reported state of a long-running backend job.
//
// Status is a string type that can hold one of the predefined values below.
// Using a string type allows for easy JSON serialization and human-readable
// logging while maintaining type safety through the defined constants.
type Status string

const (
	// StatusPending indicates the job has been accepted but not started.
	StatusPending Status = "pending"

	// StatusTraining indicates an avatar training job is running.
	StatusTraining Status = "training"

	// StatusGenerating indicates a generation job is producing output.
	StatusGenerating Status = "generating"

	// StatusReady indicates a training job has finished; trackers map it
	// to [StatusActive] before surfacing it to callers.
	StatusReady Status = "ready"

	// StatusActive is the caller-facing state of a finished training job.
	StatusActive Status = "active"

	// StatusSuccess indicates a generation job completed successfully.
	StatusSuccess Status = "success"

	// StatusFailed indicates the job ended in failure.
	StatusFailed Status = "failed"

	// StatusUnknown indicates the status could not be determined.
	// This typically occurs when an extractor cannot parse the response.
	StatusUnknown Status = "unknown"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the job has reached an end state and polling
// should stop.
func (s Status) Terminal() bool {
	switch s {
	case StatusReady, StatusActive, StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// InProgress reports whether the job is still being worked on.
func (s Status) InProgress() bool {
	switch s {
	case StatusPending, StatusTraining, StatusGenerating:
		return true
	default:
		return false
	}
}

// ParseStatus normalizes a raw status string from a backend response into a
// [Status]. Common synonyms collapse onto the canonical values; anything
// unrecognized maps to [StatusUnknown].
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "queued", "accepted", "created":
		return StatusPending
	case "training":
		return StatusTraining
	case "generating", "processing", "in_progress", "running":
		return StatusGenerating
	case "ready":
		return StatusReady
	case "active":
		return StatusActive
	case "success", "succeeded", "completed", "complete", "done", "ok":
		return StatusSuccess
	case "failed", "failure", "error", "cancelled", "canceled":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// StatusFunc is the boundary to the caller's transport layer: it checks a
// job's status once and reports it. Trackers call it on every poll tick;
// they have no knowledge of HTTP, authentication, or payload shape.
//
// A StatusFunc should honor ctx cancellation, which fires when the tracked
// operation stops.
type StatusFunc func(ctx context.Context) (Status, error)
