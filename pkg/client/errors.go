package client

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx response from the novelist API.
type APIError struct {
	StatusCode int

	// Detail is the server's "detail" field. Validation errors carry a list;
	// it is kept as raw JSON.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Detail)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		apiErr.Detail = detail.String()
	case detail.Exists():
		apiErr.Detail = detail.Raw
	default:
		apiErr.Detail = strings.TrimSpace(string(body))
	}

	return apiErr
}
