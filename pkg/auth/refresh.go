package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Default auth endpoint paths, relative to the API base URL.
const (
	DefaultRefreshPath = "/auth/refresh"
	DefaultDevPingPath = "/auth/dev_ping"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// RefreshClientConfig configures a RefreshClient.
type RefreshClientConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8000".
	BaseURL string

	// RefreshPath and DevPingPath default to DefaultRefreshPath and
	// DefaultDevPingPath.
	RefreshPath string
	DevPingPath string

	// HTTPClient must not route through a Coordinator. Defaults to a client
	// with a 30 second timeout.
	HTTPClient *http.Client
}

// RefreshClient talks to the server's auth endpoints.
type RefreshClient struct {
	baseURL     string
	refreshPath string
	devPingPath string
	httpClient  *http.Client
}

// NewRefreshClient creates a RefreshClient.
func NewRefreshClient(cfg *RefreshClientConfig) *RefreshClient {
	c := &RefreshClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		refreshPath: cfg.RefreshPath,
		devPingPath: cfg.DevPingPath,
		httpClient:  cfg.HTTPClient,
	}
	if c.refreshPath == "" {
		c.refreshPath = DefaultRefreshPath
	}
	if c.devPingPath == "" {
		c.devPingPath = DefaultDevPingPath
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// RefreshURL returns the absolute URL of the refresh endpoint.
func (c *RefreshClient) RefreshURL() string {
	return c.baseURL + c.refreshPath
}

// Refresh calls POST /auth/refresh with the refresh token as bearer
// credential and returns the new access token.
func (c *RefreshClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RefreshURL(), nil)
	if err != nil {
		return "", fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	var pair TokenPair
	if err := c.do(req, &pair); err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	if pair.AccessToken == "" {
		return "", errors.New("refresh: response has no access_token")
	}

	return pair.AccessToken, nil
}

// DevPing calls GET /auth/dev_ping, the development-mode bootstrap that
// issues a fresh token pair without credentials.
func (c *RefreshClient) DevPing(ctx context.Context) (TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.devPingPath, nil)
	if err != nil {
		return TokenPair{}, fmt.Errorf("create dev ping request: %w", err)
	}

	var pair TokenPair
	if err := c.do(req, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("dev ping: %w", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return TokenPair{}, errors.New("dev ping: response is missing tokens")
	}

	return pair, nil
}

func (c *RefreshClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if detail := gjson.GetBytes(body, "detail"); detail.Exists() {
			return fmt.Errorf("status %d: %s", resp.StatusCode, detail.String())
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}
