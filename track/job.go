package track

import (
	"errors"
	"net/url"
	"time"
)

const defaultJobTimeout = 10 * time.Second

// Kind selects which tracker watches a [Job].
type Kind string

const (
	// KindTraining uses the interval tracker: steady 30s cadence, silent
	// retries, completion when the job reports ready.
	KindTraining Kind = "training"

	// KindGeneration uses the recursive generation tracker with its
	// staged progress callbacks.
	KindGeneration Kind = "generation"

	// KindLook uses the recursive look tracker with an attempt budget and
	// a hard wall-clock cutoff.
	KindLook Kind = "look"
)

// Job describes one status-check endpoint for a long-running backend job.
//
// Job is immutable after creation via [NewJob]. All fields are private with
// getter methods that return copies of mutable data (maps), ensuring the
// job cannot be modified after construction.
//
// Jobs are configured using the functional options pattern with [JobOption]
// functions such as [WithHeaders], [WithTimeout], [WithExtractor],
// [WithMethod], [WithInterval], and [WithMaxAttempts].
type Job struct {
	name        string
	url         string
	kind        Kind
	headers     map[string]string
	timeout     time.Duration
	extractor   StatusExtractor
	method      string
	interval    time.Duration
	maxAttempts int
}

// Name returns the job's display name, used as the polling key and in logs.
func (j Job) Name() string {
	return j.name
}

// URL returns the job's status-check URL as a string.
func (j Job) URL() string {
	return j.url
}

// Kind returns which tracker should watch this job.
func (j Job) Kind() Kind {
	return j.kind
}

// Headers returns a copy of the job's custom HTTP headers.
// These headers are sent with every status check for this job.
// The map is never nil; it is empty when no custom headers are set.
func (j Job) Headers() map[string]string {
	return copyMap(j.headers)
}

// Timeout returns the HTTP request timeout for a single status check.
// Defaults to 10 seconds if not explicitly set via [WithTimeout].
func (j Job) Timeout() time.Duration {
	return j.timeout
}

// Extractor returns the job's [StatusExtractor] function.
// Returns nil if no custom extractor was specified; the probe layer then
// applies [DefaultExtractor].
func (j Job) Extractor() StatusExtractor {
	return j.extractor
}

// Method returns the HTTP method for status checks.
// Returns empty string if not explicitly set, which means GET will be used.
func (j Job) Method() string {
	return j.method
}

// Interval returns the job's custom polling interval or delay.
// Returns 0 if not specified, meaning the tracker's default cadence
// applies (30s for training, 5s for generation and look).
func (j Job) Interval() time.Duration {
	return j.interval
}

// MaxAttempts returns the job's attempt budget override.
// Returns 0 if not specified, meaning the tracker's default applies.
func (j Job) MaxAttempts() int {
	return j.maxAttempts
}

// NewJob creates a [Job] with the given name, kind, URL, and options.
//
// The name doubles as the polling key, so two jobs with the same name
// cannot be tracked concurrently on one engine. The rawURL parameter must
// be a valid URL with a scheme (http:// or https://).
//
// Returns an error if the name is empty, the kind is unknown, or the URL
// is invalid.
//
// Example:
//
//	job, err := track.NewJob("avatar-42", track.KindTraining,
//	    "https://api.example.com/avatars/42/status",
//	    track.WithHeaders("Authorization", "Bearer token123"),
//	    track.WithTimeout(5 * time.Second),
//	)
func NewJob(name string, kind Kind, rawURL string, opts ...JobOption) (Job, error) {
	if name == "" {
		return Job{}, errors.New("job name cannot be empty")
	}

	switch kind {
	case KindTraining, KindGeneration, KindLook:
	default:
		return Job{}, errors.New("unknown job kind: " + string(kind))
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Job{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme == "" {
		return Job{}, errors.New("URL must have a scheme (http:// or https://)")
	}

	cfg := &jobConfig{
		headers: make(map[string]string),
		timeout: defaultJobTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Job{}, err
		}
	}

	return Job{
		name:        name,
		url:         rawURL,
		kind:        kind,
		headers:     cfg.headers,
		timeout:     cfg.timeout,
		extractor:   cfg.extractor,
		method:      cfg.method,
		interval:    cfg.interval,
		maxAttempts: cfg.maxAttempts,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
