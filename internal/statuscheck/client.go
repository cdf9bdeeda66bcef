package statuscheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heyarsen/jobpoll/track"
)

// maxBodyBytes caps how much of a status response is read. Status payloads
// are tiny; anything larger is truncated before extraction.
const maxBodyBytes = 1 << 20

// slowCheckAfter is the latency above which a completed check is logged at
// warn level.
const slowCheckAfter = 2 * time.Second

// Client performs HTTP status checks for jobs.
//
// One Client serves every job being watched: the transport pools connections
// per host, and timeouts come from each [track.Job] rather than the client,
// so jobs with different timeout settings can share the pool.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a status-check [Client]. A nil logger falls back to
// [slog.Default].
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			// no client-wide timeout; Check applies each job's own
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// Check performs one status check for job and extracts its [track.Status].
//
// Transport failures and non-2xx responses are returned as errors, so the
// tracker retries under its normal backoff policy. On a 2xx response the
// job's extractor (or [track.DefaultExtractor]) reads the status from the
// body; an unparseable body yields [track.StatusUnknown] with a nil error,
// which trackers treat as still in progress.
func (c *Client) Check(ctx context.Context, job track.Job) (track.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, job.Timeout())
	defer cancel()

	method := job.Method()
	if method == "" {
		method = http.MethodGet
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, job.URL(), nil)
	if err != nil {
		return track.StatusUnknown, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range job.Headers() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return track.StatusUnknown, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	latency := time.Since(start)
	if latency > slowCheckAfter {
		c.logger.Warn("slow status check",
			"job", job.Name(), "latency", latency, "timeout", job.Timeout())
	}
	if err != nil {
		return track.StatusUnknown, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return track.StatusUnknown, fmt.Errorf("status check returned HTTP %d", resp.StatusCode)
	}

	extractor := job.Extractor()
	if extractor == nil {
		extractor = track.DefaultExtractor
	}
	status := extractor(body, resp.StatusCode)
	c.logger.Debug("status check",
		"job", job.Name(), "status", string(status), "latency", latency)
	return status, nil
}

// Close releases idle connections in the pool. Safe to call multiple times;
// the client remains usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
