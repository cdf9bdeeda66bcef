// Package config provides YAML configuration parsing for the jobpoll CLI.
//
// This package enables watching backend jobs from a configuration file, as
// an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	jobs:
//	  - name: avatar-42
//	    kind: training
//	    url: https://api.example.com/avatars/42/status
//	    timeout: 5s
//	    extractor: json:data.status
//
//	  - name: look-7
//	    kind: look
//	    url: https://api.example.com/looks/7/status
//	    max_attempts: 60
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the jobpoll CLI.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Jobs defines the backend jobs to watch.
	Jobs []JobConfig `yaml:"jobs"`
}

// JobConfig defines a single backend job to watch.
type JobConfig struct {
	// Name is the job identifier, used as the polling key and in logs.
	Name string `yaml:"name"`

	// Kind selects the tracker: "training", "generation", or "look".
	Kind string `yaml:"kind"`

	// URL is the status-check endpoint URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Method is the HTTP method (GET, POST). Defaults to GET.
	Method string `yaml:"method"`

	// Timeout is the per-check request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are custom HTTP headers sent with each status check.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Extractor determines how to interpret the response as a job status.
	// Can be shorthand ("json:data.status", "regex:pattern") or structured.
	Extractor ExtractorConfig `yaml:"extractor"`

	// Interval overrides the tracker's default cadence for this job.
	// Must be between 1s and 1h if specified.
	Interval Duration `yaml:"interval"`

	// MaxAttempts overrides the tracker's default attempt budget.
	MaxAttempts int `yaml:"max_attempts"`
}

// ExtractorConfig specifies how to read a job status from a response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	extractor: json:status
//	extractor: json:data.job.status
//	extractor: regex:"state":\s*"(\w+)"
//	extractor: default
//
// Structured object:
//
//	extractor:
//	  type: contains
//	  text: done
//	  status: success
type ExtractorConfig struct {
	// Type is the extractor type: "default", "json", "regex", "contains".
	Type string

	// Path is the JSON field path (for type: json).
	Path string

	// Pattern is the regular expression (for type: regex). It must contain
	// one capture group.
	Pattern string

	// Text is the substring to search for (for type: contains).
	Text string

	// Status is the status reported when the text matches
	// (for type: contains). Defaults to "success".
	Status string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ExtractorConfig.
func (e *ExtractorConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return e.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type    string `yaml:"type"`
			Path    string `yaml:"path"`
			Pattern string `yaml:"pattern"`
			Text    string `yaml:"text"`
			Status  string `yaml:"status"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Type = raw.Type
		e.Path = raw.Path
		e.Pattern = raw.Pattern
		e.Text = raw.Text
		e.Status = raw.Status
		return nil
	}

	return fmt.Errorf("extractor must be a string or object, got %v", node.Kind)
}

// parseShorthand parses extractor shorthand syntax.
//
// Supported formats:
//   - "default" → use the default extractor
//   - "json:path" → extract from a JSON field
//   - "regex:pattern" → extract via the pattern's first capture group
//   - "contains:text" → report success when the body contains text
func (e *ExtractorConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, ":"); idx != -1 {
		e.Type = s[:idx]
		value := s[idx+1:]

		switch e.Type {
		case "json":
			e.Path = value
		case "regex":
			e.Pattern = value
		case "contains":
			e.Text = value
		default:
			return fmt.Errorf("unknown extractor type %q", e.Type)
		}
		return nil
	}

	if s != "default" {
		return fmt.Errorf("unknown extractor %q (expected 'default', 'json:path', 'regex:pattern', or 'contains:text')", s)
	}
	e.Type = s
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL and header values, and every
// job entry is validated.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if len(c.Jobs) == 0 {
		return errors.New("at least one job must be defined")
	}

	seen := make(map[string]struct{}, len(c.Jobs))
	for i := range c.Jobs {
		jc := &c.Jobs[i]

		if jc.Name == "" {
			return fmt.Errorf("jobs[%d]: name is required", i)
		}
		if _, dup := seen[jc.Name]; dup {
			return fmt.Errorf("jobs[%d]: duplicate name %q", i, jc.Name)
		}
		seen[jc.Name] = struct{}{}

		switch jc.Kind {
		case "training", "generation", "look":
		case "":
			return fmt.Errorf("jobs[%d] (%s): kind is required", i, jc.Name)
		default:
			return fmt.Errorf("jobs[%d] (%s): kind must be training, generation, or look, got %q",
				i, jc.Name, jc.Kind)
		}

		if jc.URL == "" {
			return fmt.Errorf("jobs[%d] (%s): url is required", i, jc.Name)
		}
		expanded, err := expandEnvVars(jc.URL)
		if err != nil {
			return fmt.Errorf("jobs[%d] (%s): url: %w", i, jc.Name, err)
		}
		jc.URL = expanded

		parsedURL, err := url.Parse(jc.URL)
		if err != nil {
			return fmt.Errorf("jobs[%d] (%s): invalid url: %w", i, jc.Name, err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("jobs[%d] (%s): url scheme must be http or https, got %q",
				i, jc.Name, parsedURL.Scheme)
		}

		for k, v := range jc.Headers {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("jobs[%d] (%s): headers[%s]: %w", i, jc.Name, k, err)
			}
			jc.Headers[k] = expanded
		}

		if jc.Method != "" && jc.Method != "GET" && jc.Method != "POST" {
			return fmt.Errorf("jobs[%d] (%s): method must be GET or POST", i, jc.Name)
		}

		if jc.Timeout != 0 && jc.Timeout.Duration() < time.Second {
			return fmt.Errorf("jobs[%d] (%s): timeout must be at least 1s if specified, got %s",
				i, jc.Name, jc.Timeout.Duration())
		}

		if jc.Interval != 0 {
			if jc.Interval.Duration() < time.Second {
				return fmt.Errorf("jobs[%d] (%s): interval must be at least 1s, got %s",
					i, jc.Name, jc.Interval.Duration())
			}
			if jc.Interval.Duration() > time.Hour {
				return fmt.Errorf("jobs[%d] (%s): interval must not exceed 1h, got %s",
					i, jc.Name, jc.Interval.Duration())
			}
		}

		if jc.MaxAttempts < 0 {
			return fmt.Errorf("jobs[%d] (%s): max_attempts cannot be negative", i, jc.Name)
		}

		if err := validateExtractor(&jc.Extractor, fmt.Sprintf("jobs[%d] (%s)", i, jc.Name)); err != nil {
			return err
		}
	}

	return nil
}

// validateExtractor validates an extractor configuration.
func validateExtractor(e *ExtractorConfig, context string) error {
	if e.Type == "" {
		return nil // empty means default, which is valid
	}

	switch e.Type {
	case "default":
		// no additional validation needed
	case "json":
		if e.Path == "" {
			return fmt.Errorf("%s: extractor type 'json' requires a path", context)
		}
	case "regex":
		if e.Pattern == "" {
			return fmt.Errorf("%s: extractor type 'regex' requires a pattern", context)
		}
		if _, err := regexp.Compile(e.Pattern); err != nil {
			return fmt.Errorf("%s: invalid extractor pattern: %w", context, err)
		}
	case "contains":
		if e.Text == "" {
			return fmt.Errorf("%s: extractor type 'contains' requires text", context)
		}
	default:
		return fmt.Errorf("%s: unknown extractor type %q", context, e.Type)
	}

	return nil
}
