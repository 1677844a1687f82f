// Package client provides an HTTP client for the plantwater monitor API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/HatiCode/plantwater/pkg/storage"
)

// StaleHeader is set to "true" by the monitor when the latest snapshot is
// older than twice the sampling interval.
const StaleHeader = "X-Plantwater-Stale"

// StatusClient fetches status snapshots and history from the monitor.
// It is safe for concurrent use by multiple goroutines.
type StatusClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStatusClient creates a client for the monitor at baseURL
// (e.g. "http://localhost:8080") with a 5 second request timeout.
func NewStatusClient(baseURL string) *StatusClient {
	return NewStatusClientWithTimeout(baseURL, 5*time.Second)
}

// NewStatusClientWithTimeout creates a client with a custom timeout.
func NewStatusClientWithTimeout(baseURL string, timeout time.Duration) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StatusResult contains the snapshot and whether the monitor flagged it stale.
type StatusResult struct {
	Snapshot storage.Snapshot
	Stale    bool
}

// GetStatus fetches the latest snapshot for plant.
func (c *StatusClient) GetStatus(ctx context.Context, plant string) (*StatusResult, error) {
	var snap storage.Snapshot
	resp, err := c.get(ctx, "/status/current", plant, &snap)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		Snapshot: snap,
		Stale:    resp.Header.Get(StaleHeader) == "true",
	}, nil
}

// GetHistory fetches the current epoch's records for plant, oldest first.
func (c *StatusClient) GetHistory(ctx context.Context, plant string) (*storage.History, error) {
	var h storage.History
	if _, err := c.get(ctx, "/history", plant, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *StatusClient) get(ctx context.Context, path, plant string, out any) (*http.Response, error) {
	if plant == "" {
		return nil, fmt.Errorf("plant cannot be empty")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path
	query := u.Query()
	query.Set("plant", plant)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no data for plant %q", plant)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

// IsStale reports whether snap is older than staleAfter.
func IsStale(snap storage.Snapshot, staleAfter time.Duration) bool {
	return time.Since(snap.GeneratedAt) > staleAfter
}
