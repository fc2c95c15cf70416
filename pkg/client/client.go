// Package client talks to the novelist API: the data routes under
// /apiv1/data and the generation streams under /apiv1/generator.
//
// Authentication is left to the http.Client's transport, normally an
// auth.Coordinator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/papercomputeco/novelist/pkg/logger"
	"github.com/papercomputeco/novelist/pkg/sse"
	"github.com/papercomputeco/novelist/pkg/utils"
)

const (
	dataPrefix      = "/apiv1/data"
	generatorPrefix = "/apiv1/generator"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000".
	BaseURL string

	// HTTPClient sends every request. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// PartialName is the event name carrying incremental generation text.
	// Defaults to sse.DefaultPartialName.
	PartialName string

	Logger *slog.Logger
}

// Client is a novelist API client. It is safe for concurrent use.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	partialName string
	logger      *slog.Logger
}

// New creates a Client.
func New(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("API base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API target URL %q: scheme and host are required", cfg.BaseURL)
	}

	c := &Client{
		baseURL:     base,
		httpClient:  cfg.HTTPClient,
		partialName: cfg.PartialName,
		logger:      cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.partialName == "" {
		c.partialName = sse.DefaultPartialName
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}

	return c, nil
}

// Get fetches one resource into out.
func (c *Client) Get(ctx context.Context, kind Kind, id int, out any) error {
	return c.doJSON(ctx, http.MethodGet, c.dataPath(kind, id), nil, out)
}

// GetRecursive fetches a story with its whole outline tree.
func (c *Client) GetRecursive(ctx context.Context, id int, out any) error {
	return c.doJSON(ctx, http.MethodGet, c.dataPath(KindStory, id, "recursive"), nil, out)
}

// Queries fetches a resource together with the generator queries recorded
// against it.
func (c *Client) Queries(ctx context.Context, kind Kind, id int, out any) error {
	if !kind.Generative() {
		return fmt.Errorf("%s has no queries", kind.Label())
	}
	return c.doJSON(ctx, http.MethodGet, c.dataPath(kind, id, "queries"), nil, out)
}

// Update replaces the editable fields of a resource. Only the fields present
// in in are changed.
func (c *Client) Update(ctx context.Context, kind Kind, id int, in, out any) error {
	if !kind.Generative() {
		return fmt.Errorf("%s cannot be updated", kind.Label())
	}
	return c.doJSON(ctx, http.MethodPut, c.dataPath(kind, id), in, out)
}

// CreateStory creates a story owned by the current user.
func (c *Client) CreateStory(ctx context.Context, in StoryCreate) (*Story, error) {
	var story Story
	// The create route is registered with a trailing slash.
	if err := c.doJSON(ctx, http.MethodPost, dataPrefix+"/story/", in, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *Client) dataPath(kind Kind, id int, suffix ...string) string {
	parts := append([]string{dataPrefix, kind.dataSegment(), strconv.Itoa(id)}, suffix...)
	return strings.Join(parts, "/")
}

func (c *Client) url(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to novelist API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
