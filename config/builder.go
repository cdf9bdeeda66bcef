package config

import (
	"sort"

	"github.com/heyarsen/jobpoll/track"
)

// BuildJobs converts parsed configuration into SDK Job objects.
func BuildJobs(cfg *Config) ([]track.Job, error) {
	jobs := make([]track.Job, 0, len(cfg.Jobs))
	for _, jc := range cfg.Jobs {
		job, err := buildJob(jc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// buildJob converts a single JobConfig to an SDK Job.
func buildJob(jc JobConfig) (track.Job, error) {
	var opts []track.JobOption

	if jc.Method != "" {
		opts = append(opts, track.WithMethod(jc.Method))
	}

	if jc.Timeout != 0 {
		opts = append(opts, track.WithTimeout(jc.Timeout.Duration()))
	}

	if len(jc.Headers) > 0 {
		opts = append(opts, track.WithHeaders(mapToKeyValuePairs(jc.Headers)...))
	}

	extractor, err := buildExtractor(jc.Extractor)
	if err != nil {
		return track.Job{}, err
	}
	if extractor != nil {
		opts = append(opts, track.WithExtractor(extractor))
	}

	if jc.Interval != 0 {
		opts = append(opts, track.WithInterval(jc.Interval.Duration()))
	}

	if jc.MaxAttempts != 0 {
		opts = append(opts, track.WithMaxAttempts(jc.MaxAttempts))
	}

	return track.NewJob(jc.Name, track.Kind(jc.Kind), jc.URL, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildExtractor converts ExtractorConfig to a StatusExtractor function.
// Returns nil for default/empty extractors (the probe layer applies
// track.DefaultExtractor).
func buildExtractor(ec ExtractorConfig) (track.StatusExtractor, error) {
	switch ec.Type {
	case "", "default":
		return nil, nil
	case "json":
		return track.JSONFieldExtractor(ec.Path), nil
	case "regex":
		return track.RegexExtractor(ec.Pattern)
	case "contains":
		status := track.StatusSuccess
		if ec.Status != "" {
			status = track.ParseStatus(ec.Status)
		}
		return track.ContainsExtractor(ec.Text, status), nil
	default:
		// validation should catch this, but treat as default as fallback
		return nil, nil
	}
}
