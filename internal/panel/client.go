package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the hosting control plane's application API. The panel is
// an opaque external system: it may be slow or unavailable, so every call
// runs under the configured timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds the panel client configuration
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new panel API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// ListServers fetches every server provisioned for the given panel user.
// An empty slice with a nil error means the user genuinely has no servers.
func (c *Client) ListServers(ctx context.Context, panelUserID int64) ([]Server, error) {
	path := fmt.Sprintf("/api/application/users/%d?include=servers", panelUserID)

	var envelope userObject
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}

	data := envelope.Attributes.Relationships.Servers.Data
	servers := make([]Server, 0, len(data))
	for _, obj := range data {
		servers = append(servers, obj.Attributes)
	}
	return servers, nil
}

// SuspendServer suspends a server on the panel.
func (c *Client) SuspendServer(ctx context.Context, serverID int64) error {
	path := fmt.Sprintf("/api/application/servers/%d/suspend", serverID)
	return c.doRequest(ctx, http.MethodPost, path, nil, nil)
}

// doRequest performs an HTTP request against the panel API
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("panel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("panel API error: status %d: %s", resp.StatusCode, string(respBody))
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode panel response: %w", err)
	}
	return nil
}
