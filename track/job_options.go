package track

import (
	"errors"
	"net/http"
	"time"
)

// jobConfig holds mutable state during job construction.
type jobConfig struct {
	headers     map[string]string
	timeout     time.Duration
	extractor   StatusExtractor
	method      string
	interval    time.Duration
	maxAttempts int
}

// JobOption is a function that configures a [Job] during construction.
//
// JobOption implements the functional options pattern, allowing optional
// configuration to be passed to [NewJob] in a type-safe, extensible way.
// Options return an error if validation fails.
type JobOption func(*jobConfig) error

// WithHeaders adds custom HTTP headers to status checks for this job.
//
// Use this for status endpoints that require authentication. Headers are
// sent with every status check for this job.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	job, err := track.NewJob("avatar-42", track.KindTraining, url,
//	    track.WithHeaders("Authorization", "Bearer token123"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) JobOption {
	return func(cfg *jobConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the HTTP request timeout for a single status check.
//
// If the endpoint does not respond within this duration, that check counts
// as a probe failure; the tracker retries on its next tick. Defaults to
// 10 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) JobOption {
	return func(cfg *jobConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithExtractor sets a custom [StatusExtractor] for this job.
//
// The extractor determines how to interpret the status-check response as a
// [Status]. If not specified, [DefaultExtractor] is used, which reads a
// top-level JSON "status" or "state" field.
func WithExtractor(e StatusExtractor) JobOption {
	return func(cfg *jobConfig) error {
		cfg.extractor = e
		return nil
	}
}

// WithMethod sets the HTTP method for status checks.
//
// Supported methods are GET (default) and POST, for backends whose status
// endpoint requires it.
//
// Returns an error if the method is not GET or POST.
func WithMethod(method string) JobOption {
	return func(cfg *jobConfig) error {
		switch method {
		case http.MethodGet, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET or POST")
		}
	}
}

// WithInterval overrides the tracker's default polling cadence for this
// job: the tick interval for training jobs, the reschedule delay for
// generation and look jobs.
//
// The interval must be at least 1 second and at most 1 hour.
// Returns an error if the interval is outside these bounds.
func WithInterval(d time.Duration) JobOption {
	return func(cfg *jobConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// WithMaxAttempts overrides the tracker's default attempt budget for this
// job. The budget counts probe invocations, not wall-clock time.
//
// Returns an error if the value is negative.
func WithMaxAttempts(n int) JobOption {
	return func(cfg *jobConfig) error {
		if n < 0 {
			return errors.New("max attempts cannot be negative")
		}
		cfg.maxAttempts = n
		return nil
	}
}
