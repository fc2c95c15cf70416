package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// pendingRequest is the replayable configuration of an in-flight request.
type pendingRequest struct {
	method string
	url    *url.URL
	header http.Header
	body   []byte
}

// snapshot buffers req's body and captures what is needed to re-issue it.
// req.Body is consumed and closed.
func snapshot(req *http.Request) (*pendingRequest, error) {
	p := &pendingRequest{
		method: req.Method,
		url:    req.URL,
		header: req.Header.Clone(),
	}
	if p.method == "" {
		p.method = http.MethodGet
	}
	if p.header == nil {
		p.header = http.Header{}
	}

	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffering request body: %w", err)
		}
		p.body = body
	}

	return p, nil
}

// build creates a fresh request from the snapshot, bound to ctx.
func (p *pendingRequest) build(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}

	req, err := http.NewRequestWithContext(ctx, p.method, p.url.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = p.header.Clone()

	return req, nil
}

// requestKey identifies a request by its origin-relative URL and method.
// Two identical in-flight requests share a key.
func requestKey(method string, u *url.URL) string {
	if method == "" {
		method = http.MethodGet
	}
	return u.RequestURI() + "_" + method
}

// registry maps request keys to the latest request issued under that key.
// A second request with the same key overwrites the first one's entry.
// It is guarded by the owning Coordinator's mutex.
type registry map[string]*pendingRequest
