package config

import (
	"net/http"

	"github.com/papercomputeco/novelist/pkg/auth"
	"github.com/papercomputeco/novelist/pkg/sse"
)

const (
	defaultClientAPITarget = "http://localhost:8000"
	defaultClientMode      = ModeDevelopment

	defaultRefreshTimeout = "30s"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
			Mode:      defaultClientMode,
		},
		Auth: AuthConfig{
			RefreshPath:     auth.DefaultRefreshPath,
			DevPingPath:     auth.DefaultDevPingPath,
			FailureStatuses: []int{http.StatusUnauthorized, http.StatusUnprocessableEntity},
			ExpiredDetails:  []string{auth.DetailSignatureExpired, auth.DetailTokenInvalid},
			RefreshTimeout:  defaultRefreshTimeout,
		},
		Generator: GeneratorConfig{
			PartialEvent: sse.DefaultPartialName,
		},
	}
}
