// Package optimizer is the HTTP client for the remote tour optimizer service.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

var (
	// ErrReachability marks a failed probe of the service root. It is diagnostic only.
	ErrReachability = errors.New("optimizer unreachable")
	// ErrStartRun marks a failed start request
	ErrStartRun = errors.New("start run failed")
	// ErrPoll marks a failed snapshot fetch
	ErrPoll = errors.New("poll failed")
)

const (
	userAgent       = "tourviz/1.0"
	maxBodyExcerpt  = 200
	defaultTimeout  = 10 * time.Second
	maxSnapshotSize = 8 << 20
)

// RunRequest is the body of POST /run
type RunRequest struct {
	Points []models.Point `json:"points"`
}

// Client talks to the optimizer's HTTP interface
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the optimizer at baseURL
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: defaultTimeout})
}

// NewClientWithHTTP creates a client using the given http.Client
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the optimizer base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Probe checks that the service root answers. Any HTTP response counts as reachable.
func (c *Client) Probe(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReachability, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReachability, err)
	}
	drain(resp)
	return nil
}

// StartRun asks the optimizer to start a run over points
func (c *Client) StartRun(ctx context.Context, points []models.Point) error {
	payload, err := json.Marshal(RunRequest{Points: points})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrStartRun, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/run", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStartRun, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStartRun, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrStartRun, resp.StatusCode, bodyExcerpt(resp.Body))
	}
	return nil
}

// FetchState fetches the optimizer's current snapshot
func (c *Client) FetchState(ctx context.Context) (models.Snapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/state", nil)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", ErrPoll, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", ErrPoll, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Snapshot{}, fmt.Errorf("%w: unexpected status code %d: %s", ErrPoll, resp.StatusCode, bodyExcerpt(resp.Body))
	}

	var snap models.Snapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSnapshotSize)).Decode(&snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: decode snapshot: %v", ErrPoll, err)
	}
	snap.Normalize()
	return snap, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func bodyExcerpt(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxBodyExcerpt+1))
	s := strings.TrimSpace(string(b))
	if len(s) > maxBodyExcerpt {
		s = s[:maxBodyExcerpt] + "..."
	}
	return s
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
