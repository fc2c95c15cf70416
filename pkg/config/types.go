package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent novelist configuration stored as
// config.toml in the .novelist/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Client    ClientConfig    `toml:"client"`
	Auth      AuthConfig      `toml:"auth"`
	Generator GeneratorConfig `toml:"generator"`
}

// ClientConfig holds settings for commands that talk to the novelist API.
type ClientConfig struct {
	// APITarget is the full API root URL (scheme + host + port).
	APITarget string `toml:"api_target,omitempty"`

	// Mode is "development" or "production". In development mode a missing
	// session is bootstrapped through the dev ping endpoint.
	Mode string `toml:"mode,omitempty"`
}

// AuthConfig holds the token refresh settings.
type AuthConfig struct {
	RefreshPath     string   `toml:"refresh_path,omitempty"`
	DevPingPath     string   `toml:"dev_ping_path,omitempty"`
	FailureStatuses []int    `toml:"failure_statuses,omitempty"`
	ExpiredDetails  []string `toml:"expired_details,omitempty"`

	// RefreshTimeout is a Go duration string, e.g. "30s".
	RefreshTimeout string `toml:"refresh_timeout,omitempty"`
}

// GeneratorConfig holds settings for generation streams.
type GeneratorConfig struct {
	// PartialEvent is the event name that carries incremental text.
	PartialEvent string `toml:"partial_event,omitempty"`
}

// Mode values.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.mode": {
		get: func(c *Config) string { return c.Client.Mode },
		set: func(c *Config, v string) error {
			if v != ModeDevelopment && v != ModeProduction {
				return fmt.Errorf("invalid value for client.mode: %q (expected %s or %s)", v, ModeDevelopment, ModeProduction)
			}
			c.Client.Mode = v
			return nil
		},
	},
	"auth.refresh_path": {
		get: func(c *Config) string { return c.Auth.RefreshPath },
		set: func(c *Config, v string) error { c.Auth.RefreshPath = v; return nil },
	},
	"auth.dev_ping_path": {
		get: func(c *Config) string { return c.Auth.DevPingPath },
		set: func(c *Config, v string) error { c.Auth.DevPingPath = v; return nil },
	},
	"auth.failure_statuses": {
		get: func(c *Config) string { return joinInts(c.Auth.FailureStatuses) },
		set: func(c *Config, v string) error {
			statuses, err := splitInts(v)
			if err != nil {
				return fmt.Errorf("invalid value for auth.failure_statuses: %w", err)
			}
			c.Auth.FailureStatuses = statuses
			return nil
		},
	},
	"auth.expired_details": {
		get: func(c *Config) string { return strings.Join(c.Auth.ExpiredDetails, ",") },
		set: func(c *Config, v string) error { c.Auth.ExpiredDetails = splitStrings(v); return nil },
	},
	"auth.refresh_timeout": {
		get: func(c *Config) string { return c.Auth.RefreshTimeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for auth.refresh_timeout: %w", err)
			}
			c.Auth.RefreshTimeout = v
			return nil
		},
	},
	"generator.partial_event": {
		get: func(c *Config) string { return c.Generator.PartialEvent },
		set: func(c *Config, v string) error {
			if v == "" {
				return errors.New("generator.partial_event cannot be empty")
			}
			c.Generator.PartialEvent = v
			return nil
		},
	},
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitInts(v string) ([]int, error) {
	parts := splitStrings(v)
	ns := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, nil
}

// splitStrings splits a comma-separated list, dropping empty entries.
func splitStrings(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
