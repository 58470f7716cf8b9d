// Package client talks to the relay HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/internal/domain/roster"
	"github.com/okian/relay/pkg/logger"
)

const idempotencyHeader = "Idempotency-Key"

// DatasetInfo is the server's summary of a stored dataset.
type DatasetInfo struct {
	Version    string    `json:"version"`
	LoadedAt   time.Time `json:"loaded_at"`
	Swimmers   int       `json:"swimmers"`
	Categories int       `json:"categories"`
}

// Job is a job as returned by the server.
type Job struct {
	model.Job
	Duplicate bool `json:"duplicate"`
}

// Client is a thin JSON client for the relay API.
type Client struct {
	base   string
	http   *http.Client
	poll   time.Duration
	logger logger.Logger
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseURL, err)
	}
	c := &Client{
		base:   baseURL,
		http:   &http.Client{Timeout: defaultTimeout},
		poll:   defaultPollInterval,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LoadDataset replaces the server's dataset.
func (c *Client) LoadDataset(ctx context.Context, doc roster.Document) (DatasetInfo, error) {
	var info DatasetInfo
	_, err := c.do(ctx, http.MethodPost, "/v1/dataset", doc, nil, &info)
	return info, err
}

// Dataset fetches the server's current records.
func (c *Client) Dataset(ctx context.Context) (roster.Document, error) {
	var doc roster.Document
	_, err := c.do(ctx, http.MethodGet, "/v1/dataset?format=json", nil, nil, &doc)
	return doc, err
}

// Optimize runs req inline on the server.
func (c *Client) Optimize(ctx context.Context, req model.Request) (*model.Report, error) {
	var report model.Report
	if _, err := c.do(ctx, http.MethodPost, "/v1/optimize", req, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Submit queues req. A non-empty key makes the call idempotent.
func (c *Client) Submit(ctx context.Context, key string, req model.Request) (Job, error) {
	var headers map[string]string
	if key != "" {
		headers = map[string]string{idempotencyHeader: key}
	}
	var job Job
	_, err := c.do(ctx, http.MethodPost, "/v1/jobs", req, headers, &job)
	return job, err
}

// Job fetches one job.
func (c *Client) Job(ctx context.Context, id string) (Job, error) {
	var job Job
	_, err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, nil, &job)
	return job, err
}

// Jobs lists up to limit recent jobs, newest first.
func (c *Client) Jobs(ctx context.Context, limit int) ([]model.Job, error) {
	var jobs []model.Job
	_, err := c.do(ctx, http.MethodGet, "/v1/jobs?limit="+strconv.Itoa(limit), nil, nil, &jobs)
	return jobs, err
}

// Wait polls job id until it finishes or ctx ends.
func (c *Client) Wait(ctx context.Context, id string) (Job, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return job, err
		}
		if job.State.Done() {
			return job, nil
		}
		c.logger.Debug(ctx, "waiting for job", logger.String("id", id), logger.String("state", string(job.State)))
		select {
		case <-ctx.Done():
			return job, fmt.Errorf("%w: %s: %w", ErrJobNotDone, id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug(ctx, "api call",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return resp.StatusCode, apiErr
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}
	return resp.StatusCode, nil
}
