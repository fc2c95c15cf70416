package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/papercomputeco/novelist/pkg/generation"
	"github.com/papercomputeco/novelist/pkg/utils"
)

// GenerateOptions configures a generation stream.
type GenerateOptions struct {
	generation.Handlers

	// Tee receives a copy of the raw event stream.
	Tee io.Writer
}

// Generate asks the server to generate kind/id and folds the event stream.
// It returns the final result, or generation.ErrIncomplete when the stream
// ended before one arrived. The server may have persisted partial work in
// that case; callers should re-fetch the resource.
func (c *Client) Generate(ctx context.Context, kind Kind, id int, opts GenerateOptions) (generation.Result, error) {
	if !kind.Generative() {
		return nil, fmt.Errorf("%s cannot be generated", kind.Label())
	}

	path := generatorPrefix + "/" + kind.generatorSegment() + "/" + strconv.Itoa(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", utils.UserAgent())

	log := c.logger.With("kind", string(kind), "id", id)
	log.Debug("opening generation stream", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to novelist API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp.StatusCode, data)
	}

	folder := generation.NewFolder(&generation.Config{
		Handlers:    opts.Handlers,
		PartialName: c.partialName,
		Tee:         opts.Tee,
		Logger:      log,
	})

	return folder.Fold(ctx, resp.Body)
}
