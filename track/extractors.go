package track

import (
	"encoding/json"
	"regexp"
	"strings"
)

// StatusExtractor is a function type that determines the [Status] of a job
// from its HTTP status-check response.
//
// StatusExtractor is a pure function: the same inputs always produce the
// same output, which makes extractors easy to test and compose.
//
// Parameters:
//   - body: The HTTP response body as bytes
//   - statusCode: The HTTP status code (e.g., 200, 404, 500)
//
// Built-in extractors: [JSONFieldExtractor], [RegexExtractor],
// [ContainsExtractor], and [FirstMatch] for composition.
type StatusExtractor func(body []byte, statusCode int) Status

// JSONFieldExtractor returns a [StatusExtractor] that reads a job status
// from a JSON field using dot notation to navigate nested objects.
//
// The path parameter specifies the field to extract. For example,
// "data.job.status" navigates to {"data": {"job": {"status": "pending"}}}.
// The extracted string is normalized with [ParseStatus].
//
// Returns [StatusUnknown] if JSON parsing fails, the field does not exist,
// or the value is not a string.
//
// Example:
//
//	// For response: {"data": {"status": "generating"}}
//	extractor := track.JSONFieldExtractor("data.status")
func JSONFieldExtractor(path string) StatusExtractor {
	parts := strings.Split(path, ".")

	return func(body []byte, statusCode int) Status {
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			return StatusUnknown
		}

		current := data
		for _, part := range parts {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return StatusUnknown
			}
			current, ok = obj[part]
			if !ok {
				return StatusUnknown
			}
		}

		value, ok := current.(string)
		if !ok {
			return StatusUnknown
		}
		return ParseStatus(value)
	}
}

// RegexExtractor returns a [StatusExtractor] that matches the response body
// against a regular expression pattern.
//
// The pattern must contain at least one capture group. The first capture
// group is normalized with [ParseStatus]. If the pattern does not match,
// the extractor returns [StatusUnknown].
//
// Returns an error if the pattern is invalid.
//
// Example:
//
//	// Match {"status": "success"} in a non-JSON payload
//	extractor, err := track.RegexExtractor(`"status":\s*"(\w+)"`)
func RegexExtractor(pattern string) (StatusExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	return func(body []byte, statusCode int) Status {
		matches := re.FindSubmatch(body)
		if len(matches) < 2 {
			return StatusUnknown
		}
		return ParseStatus(string(matches[1]))
	}, nil
}

// MustRegexExtractor is like [RegexExtractor] but panics if the pattern
// is invalid.
//
// Use this for compile-time constant patterns where you want to fail fast
// on invalid regex. For runtime patterns, use [RegexExtractor] instead.
func MustRegexExtractor(pattern string) StatusExtractor {
	extractor, err := RegexExtractor(pattern)
	if err != nil {
		panic("track: invalid regex pattern: " + err.Error())
	}
	return extractor
}

// ContainsExtractor returns a [StatusExtractor] that reports result when
// the response body contains the specified text (case-insensitive), and
// [StatusUnknown] otherwise.
//
// This is useful for plain-text status endpoints, typically composed with
// [FirstMatch]:
//
//	extractor := track.FirstMatch(
//	    track.ContainsExtractor("done", track.StatusSuccess),
//	    track.ContainsExtractor("error", track.StatusFailed),
//	)
func ContainsExtractor(text string, result Status) StatusExtractor {
	lower := strings.ToLower(text)
	return func(body []byte, statusCode int) Status {
		if strings.Contains(strings.ToLower(string(body)), lower) {
			return result
		}
		return StatusUnknown
	}
}

// FirstMatch returns a [StatusExtractor] that tries multiple extractors in
// order, returning the first result that is not [StatusUnknown].
//
// This is useful for composing extractors with fallback behavior. If all
// extractors return [StatusUnknown], FirstMatch returns [StatusUnknown].
func FirstMatch(extractors ...StatusExtractor) StatusExtractor {
	return func(body []byte, statusCode int) Status {
		for _, extractor := range extractors {
			status := extractor(body, statusCode)
			if status != StatusUnknown {
				return status
			}
		}
		return StatusUnknown
	}
}

// DefaultExtractor is the [StatusExtractor] used when no extractor is
// specified on a [Job].
//
// It tries a top-level JSON "status" field first, then a "state" field.
// This matches the common `{"status": "pending"}` status-check contract.
var DefaultExtractor = FirstMatch(
	JSONFieldExtractor("status"),
	JSONFieldExtractor("state"),
)
