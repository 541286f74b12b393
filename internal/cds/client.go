// Package cds talks to the Copernicus Climate Data Store: request
// submission, task polling, and archive download, with an FTP mirror
// fallback for hosts where the API is unreachable.
package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Request describes one dataset retrieval.
type Request struct {
	Variable string `json:"variable"`
	Format   string `json:"format"`
	Year     int    `json:"year,string"`
	Version  string `json:"version"`
}

// Query pairs a request with the file it should be written to.
type Query struct {
	OutPath string
	Request Request
}

// Client retrieves one dataset request into a local file.
type Client interface {
	Retrieve(ctx context.Context, dataset string, req Request, outPath string) error
}

// Options configures the HTTP client.
type Options struct {
	BaseURL      string
	Key          string
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	PollInterval time.Duration
}

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On success it increases the rate by 20% (up to 2x initial).
// On 429 it halves the rate (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	initialRate rate.Limit
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		initialRate: initialRate,
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess increases the rate by 20%, up to 2x initial.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	newRate := a.currentRate * 1.2
	if newRate > a.maxRate {
		newRate = a.maxRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
}

// OnRateLimit halves the rate on 429 responses.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	newRate := a.currentRate * 0.5
	if newRate < a.minRate {
		newRate = a.minRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
	zap.L().Warn("cds: reducing request rate after 429",
		zap.Float64("new_rate", float64(newRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// HTTPClient implements Client against the CDS API.
type HTTPClient struct {
	client  *http.Client
	opts    Options
	limiter *AdaptiveLimiter
}

// NewHTTPClient creates a CDS API client with the given options.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.BaseURL == "" {
		return nil, eris.New("cds: base url is required")
	}
	if opts.Key == "" {
		return nil, eris.New("cds: api key is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hexfeatures/1.0"
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 5 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:    opts,
		limiter: NewAdaptiveLimiter(2, 2),
	}, nil
}

type taskState struct {
	State     string `json:"state"`
	RequestID string `json:"request_id"`
	Location  string `json:"location"`
	Error     struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// Retrieve submits the request, polls until the archive is prepared, and
// downloads it to outPath.
func (c *HTTPClient) Retrieve(ctx context.Context, dataset string, req Request, outPath string) error {
	task, err := c.submit(ctx, dataset, req)
	if err != nil {
		return err
	}

	task, err = c.waitCompleted(ctx, task)
	if err != nil {
		return err
	}

	return c.download(ctx, task.Location, outPath)
}

func (c *HTTPClient) submit(ctx context.Context, dataset string, req Request) (*taskState, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "cds: encode request")
	}

	url := fmt.Sprintf("%s/resources/%s", c.opts.BaseURL, dataset)
	resp, err := c.doWithRetry(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, eris.Wrapf(err, "cds: submit %s", dataset)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, eris.Errorf("cds: submit %s: unexpected status %d", dataset, resp.StatusCode)
	}

	var task taskState
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, eris.Wrap(err, "cds: decode submit response")
	}
	return &task, nil
}

func (c *HTTPClient) waitCompleted(ctx context.Context, task *taskState) (*taskState, error) {
	t := time.NewTicker(c.opts.PollInterval)
	defer t.Stop()

	for {
		switch task.State {
		case "completed":
			if task.Location == "" {
				return nil, eris.New("cds: completed task has no download location")
			}
			return task, nil
		case "failed":
			return nil, eris.Errorf("cds: request failed: %s (%s)",
				task.Error.Message, task.Error.Reason)
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "cds: wait for task")
		case <-t.C:
		}

		url := fmt.Sprintf("%s/tasks/%s", c.opts.BaseURL, task.RequestID)
		resp, err := c.doWithRetry(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "cds: poll task %s", task.RequestID)
		}

		var next taskState
		decErr := json.NewDecoder(resp.Body).Decode(&next)
		_ = resp.Body.Close()
		if decErr != nil {
			return nil, eris.Wrap(decErr, "cds: decode task state")
		}
		if next.RequestID == "" {
			next.RequestID = task.RequestID
		}
		task = &next
	}
}

func (c *HTTPClient) download(ctx context.Context, location, outPath string) error {
	resp, err := c.doWithRetry(ctx, http.MethodGet, location, nil)
	if err != nil {
		return eris.Wrap(err, "cds: download")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("cds: download: unexpected status %d from %s", resp.StatusCode, location)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return eris.Wrap(err, "cds: create output file")
	}
	defer func() { _ = file.Close() }()

	n, err := io.Copy(file, resp.Body)
	if err != nil {
		return eris.Wrap(err, "cds: write output file")
	}

	zap.L().Debug("cds: downloaded archive",
		zap.String("path", outPath),
		zap.Int64("bytes", n),
	)
	return nil
}

func (c *HTTPClient) doWithRetry(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := range c.opts.MaxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "cds: rate limiter wait")
		}

		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rdr)
		if err != nil {
			return nil, eris.Wrap(err, "cds: create request")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Authorization", "Bearer "+c.opts.Key)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("cds: request failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("cds: http 429 from %s", url)
			c.limiter.OnRateLimit()
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("cds: http %d from %s", resp.StatusCode, url)
			zap.L().Warn("cds: server error, retrying",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		c.limiter.OnSuccess()
		return resp, nil
	}

	return nil, eris.Wrap(lastErr, "cds: all retries exhausted")
}

func (c *HTTPClient) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(d) / 2))
	d = d + jitter

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
