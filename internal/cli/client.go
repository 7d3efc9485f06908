package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vatfiler/internal/oauth"
)

// DefaultRequestTimeout bounds a single request to the local server.
const DefaultRequestTimeout = 10 * time.Second

// ServerClient talks to a running vatfiler server.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerClient creates a client for the server at baseURL.
func NewServerClient(baseURL string) *ServerClient {
	return &ServerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultRequestTimeout},
	}
}

// BaseURL returns the server root.
func (c *ServerClient) BaseURL() string {
	return c.baseURL
}

// ConnectURL is the page that starts the authorization flow.
func (c *ServerClient) ConnectURL() string {
	return c.baseURL + "/connect"
}

// Status fetches /api/status.
func (c *ServerClient) Status(ctx context.Context) (oauth.Status, error) {
	var status oauth.Status
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return status, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, ClassifyConnectionError(err, c.baseURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return status, fmt.Errorf("failed to read status: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("status endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, fmt.Errorf("failed to decode status: %w", err)
	}
	return status, nil
}
