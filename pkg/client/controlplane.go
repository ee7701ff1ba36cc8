// Package client provides HTTP clients for talking to the scaling control plane.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/HatiCode/lagscale/pkg/queue"
)

// IdempotencyKeyHeader carries the job ID so the control plane can drop
// retried submissions.
const IdempotencyKeyHeader = "Idempotency-Key"

// ControlPlaneClient submits scale requests to the control plane over HTTP.
// It satisfies the monitor's sink interface and is safe for concurrent use.
type ControlPlaneClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewControlPlaneClient creates a client for the control plane at baseURL
// (scheme and host, e.g. "http://control-plane:8080") with a 5s timeout.
func NewControlPlaneClient(baseURL string) *ControlPlaneClient {
	return NewControlPlaneClientWithTimeout(baseURL, 5*time.Second)
}

// NewControlPlaneClientWithTimeout creates a client with a custom timeout.
func NewControlPlaneClientWithTimeout(baseURL string, timeout time.Duration) *ControlPlaneClient {
	return &ControlPlaneClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ScaleRequestBody is the JSON body of POST /scale-requests.
type ScaleRequestBody struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// Add posts a job named name to /scale-requests. A 409 response means the
// control plane already holds opts.JobID and is reported as
// queue.ErrDuplicateJob.
func (c *ControlPlaneClient) Add(ctx context.Context, name string, data any, opts queue.AddOptions) (queue.Job, error) {
	if name == "" {
		return queue.Job{}, errors.New("job name cannot be empty")
	}
	if opts.JobID == "" {
		return queue.Job{}, errors.New("job id cannot be empty")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return queue.Job{}, fmt.Errorf("marshal job data: %w", err)
	}
	body, err := json.Marshal(ScaleRequestBody{Name: name, Data: raw})
	if err != nil {
		return queue.Job{}, fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return queue.Job{}, fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath("scale-requests")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return queue.Job{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyKeyHeader, opts.JobID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return queue.Job{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusAccepted:
		return queue.Job{
			ID:         opts.JobID,
			Name:       name,
			Data:       raw,
			EnqueuedAt: time.Now().UTC(),
		}, nil
	case http.StatusConflict:
		return queue.Job{}, fmt.Errorf("%w: %s", queue.ErrDuplicateJob, opts.JobID)
	default:
		return queue.Job{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// Ping checks that the control plane answers GET /healthz with 200.
func (c *ControlPlaneClient) Ping(ctx context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath("healthz")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
