// Package stats proxies coding-activity statistics from the WakaTime API,
// caching responses so the upstream rate limit is never a page-load hazard.
package stats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://wakatime.com/api/v1"
	cacheTTL       = 30 * time.Minute
	requestTimeout = 15 * time.Second
)

// Client fetches stats with a time-bounded cache. On upstream failure it
// serves the last good payload instead of erroring, so the stats widget
// degrades to stale rather than blank.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu        sync.Mutex
	cached    json.RawMessage
	fetchedAt time.Time
}

// NewClient creates a WakaTime stats client. An empty apiKey disables it.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Stats returns the last-7-days activity summary as raw JSON.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("wakatime not configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < cacheTTL {
		return c.cached, nil
	}

	payload, err := c.fetch(ctx)
	if err != nil {
		if c.cached != nil {
			c.logger.Warn("wakatime fetch failed, serving stale cache", "error", err)
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = payload
	c.fetchedAt = time.Now()
	return payload, nil
}

func (c *Client) fetch(ctx context.Context) (json.RawMessage, error) {
	url := c.baseURL + "/users/current/stats/last_7_days"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization",
		"Basic "+base64.StdEncoding.EncodeToString([]byte(c.apiKey)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wakatime request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wakatime status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wakatime body: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("wakatime returned invalid JSON")
	}

	return json.RawMessage(body), nil
}
