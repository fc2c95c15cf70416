package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/papercomputeco/novelist/pkg/logger"
)

const defaultRefreshTimeout = 30 * time.Second

var (
	// ErrRefreshFailed is returned to every request waiting on a refresh
	// that did not produce a new access token. The session has ended by the
	// time callers see it.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoRefreshToken is wrapped in ErrRefreshFailed when the store holds
	// no refresh token.
	ErrNoRefreshToken = errors.New("no refresh token stored")
)

// Config configures a Coordinator.
type Config struct {
	// BaseURL is the API root. Its origin is used to recognise the refresh
	// endpoint.
	BaseURL string

	// RefreshPath is the refresh endpoint path. Requests to it pass through
	// untouched. Defaults to DefaultRefreshPath.
	RefreshPath string

	// Store holds the token pair. Required.
	Store TokenStore

	// Refresher obtains a new access token. Required.
	Refresher Refresher

	// Policy classifies expired-token responses. Defaults to DefaultPolicy().
	Policy Policy

	// RefreshTimeout bounds a single refresh call. Defaults to 30 seconds.
	RefreshTimeout time.Duration

	// OnSessionEnd is called once per failed refresh, after the store has
	// been cleared.
	OnSessionEnd func(error)

	// Transport sends the actual requests. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// refreshOutcome is delivered to every subscriber of one refresh cycle.
type refreshOutcome struct {
	token string
	err   error
}

// Coordinator is an http.RoundTripper that authenticates requests with the
// stored access token and transparently recovers from token expiry.
//
// When any number of requests fail with an expired token, exactly one
// refresh call is made. Each failed request then re-issues its own request
// with the new token and receives its own response. If the refresh fails,
// the session ends and every waiting request gets an error wrapping
// ErrRefreshFailed.
type Coordinator struct {
	next           http.RoundTripper
	store          TokenStore
	refresher      Refresher
	policy         Policy
	refreshTimeout time.Duration
	onSessionEnd   func(error)
	refreshURL     *url.URL
	logger         *slog.Logger

	mu          sync.Mutex
	refreshing  bool
	subscribers []func(refreshOutcome)
	pending     registry
}

// NewCoordinator creates a Coordinator from cfg.
func NewCoordinator(cfg *Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, errors.New("token store is required")
	}
	if cfg.Refresher == nil {
		return nil, errors.New("refresher is required")
	}

	refreshPath := cfg.RefreshPath
	if refreshPath == "" {
		refreshPath = DefaultRefreshPath
	}
	refreshURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + refreshPath)
	if err != nil {
		return nil, fmt.Errorf("parsing refresh URL: %w", err)
	}

	c := &Coordinator{
		next:           cfg.Transport,
		store:          cfg.Store,
		refresher:      cfg.Refresher,
		policy:         cfg.Policy,
		refreshTimeout: cfg.RefreshTimeout,
		onSessionEnd:   cfg.OnSessionEnd,
		refreshURL:     refreshURL,
		logger:         cfg.Logger,
		pending:        make(registry),
	}
	if c.next == nil {
		c.next = http.DefaultTransport
	}
	if c.policy.isZero() {
		c.policy = DefaultPolicy()
	}
	if c.refreshTimeout <= 0 {
		c.refreshTimeout = defaultRefreshTimeout
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}

	return c, nil
}

// RoundTrip implements http.RoundTripper.
func (c *Coordinator) RoundTrip(req *http.Request) (*http.Response, error) {
	if c.isRefreshRequest(req) {
		return c.next.RoundTrip(req)
	}

	log := c.logger.With("request_id", uuid.NewString(), "method", req.Method, "path", req.URL.Path)

	snap, err := snapshot(req)
	if err != nil {
		return nil, err
	}
	key := requestKey(snap.method, req.URL)
	c.track(key, snap)

	out, err := snap.build(req.Context())
	if err != nil {
		c.untrack(key)
		return nil, err
	}
	if out.Header.Get("Authorization") == "" {
		pair, err := c.store.Tokens()
		if err != nil {
			c.untrack(key)
			return nil, fmt.Errorf("reading access token: %w", err)
		}
		if pair.AccessToken != "" {
			out.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		}
	}

	resp, err := c.next.RoundTrip(out)
	if err != nil {
		c.untrack(key)
		return nil, err
	}

	if !c.policy.IsFailureStatus(resp.StatusCode) {
		c.untrack(key)
		return resp, nil
	}

	body, err := bufferBody(resp)
	if err != nil {
		c.untrack(key)
		return nil, err
	}
	detail := gjson.GetBytes(body, "detail").String()
	if !c.policy.IsExpiredDetail(detail) {
		c.untrack(key)
		return resp, nil
	}

	log.Debug("access token rejected, waiting for refresh", "status", resp.StatusCode, "detail", detail)

	token, err := c.awaitRefresh(req.Context())
	if err != nil {
		c.untrack(key)
		return nil, err
	}

	defer c.untrack(key)
	return c.replay(req.Context(), key, snap, token, log)
}

// awaitRefresh subscribes to the current refresh cycle, starting one if
// none is in flight, and blocks until it resolves or ctx ends.
func (c *Coordinator) awaitRefresh(ctx context.Context) (string, error) {
	done := make(chan refreshOutcome, 1)

	c.mu.Lock()
	c.subscribers = append(c.subscribers, func(o refreshOutcome) { done <- o })
	start := !c.refreshing
	c.refreshing = true
	c.mu.Unlock()

	if start {
		// The refresh outlives the request that triggered it: other
		// requests may be subscribed to the same cycle.
		go c.refresh(context.WithoutCancel(ctx))
	}

	select {
	case o := <-done:
		return o.token, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh runs one refresh cycle and notifies every subscriber in FIFO
// order. The new token is stored before the in-flight flag is cleared so
// that no request issued after the cycle reads the stale token.
func (c *Coordinator) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	c.logger.Info("refreshing access token")

	token, err := c.obtainToken(ctx)

	c.mu.Lock()
	c.refreshing = false
	subscribers := c.subscribers
	c.subscribers = nil
	c.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		c.endSession(err)
	} else {
		c.logger.Info("access token refreshed", "waiting", len(subscribers))
	}

	for _, notify := range subscribers {
		notify(refreshOutcome{token: token, err: err})
	}
}

func (c *Coordinator) obtainToken(ctx context.Context) (string, error) {
	pair, err := c.store.Tokens()
	if err != nil {
		return "", fmt.Errorf("reading refresh token: %w", err)
	}
	if pair.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	token, err := c.refresher.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		return "", err
	}

	if err := c.store.SetAccessToken(token); err != nil {
		return "", fmt.Errorf("storing access token: %w", err)
	}

	return token, nil
}

// endSession is the logout path: stored tokens are dropped and the owner is
// notified.
func (c *Coordinator) endSession(cause error) {
	c.logger.Error("session ended", "error", cause)

	if err := c.store.Clear(); err != nil {
		c.logger.Error("clearing tokens", "error", err)
	}
	if c.onSessionEnd != nil {
		c.onSessionEnd(cause)
	}
}

// replay re-issues the request stored under key, falling back to own when
// another request under the same key has already settled and removed it.
func (c *Coordinator) replay(ctx context.Context, key string, own *pendingRequest, token string, log *slog.Logger) (*http.Response, error) {
	p, ok := c.lookup(key)
	if !ok {
		p = own
	}

	req, err := p.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuilding request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.next.RoundTrip(req)
	if err != nil {
		log.Warn("replay failed", "error", err)
		return nil, err
	}

	log.Debug("replayed request", "status", resp.StatusCode)
	return resp, nil
}

func (c *Coordinator) isRefreshRequest(req *http.Request) bool {
	if c.refreshURL.Host != "" && !strings.EqualFold(req.URL.Host, c.refreshURL.Host) {
		return false
	}
	return req.URL.Path == c.refreshURL.Path
}

func (c *Coordinator) track(key string, p *pendingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] = p
}

func (c *Coordinator) lookup(key string) (*pendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[key]
	return p, ok
}

func (c *Coordinator) untrack(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, key)
}

// Pending returns the number of requests currently tracked for replay.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// bufferBody reads resp.Body fully and replaces it with an in-memory copy so
// the response can still be passed on unchanged.
func bufferBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
