package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/papercomputeco/novelist/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// found via dotdir resolution, and binds environment variables with the
// NOVELIST_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (NOVELIST_CLIENT_API_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: NOVELIST_CLIENT_MODE, NOVELIST_AUTH_REFRESH_TIMEOUT, etc.
	v.SetEnvPrefix("NOVELIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Resolve builds a Config from the merged viper state. Every value passes
// through the same setter as `novelist config set`, so list values may come
// from TOML arrays or from comma-separated env vars and flags.
func Resolve(v *viper.Viper) (*Config, error) {
	cfg := &Config{Version: v.GetInt("version")}

	for _, key := range ValidConfigKeys() {
		raw, err := stringValue(v.Get(key))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		if raw == "" {
			continue
		}
		if err := configKeys[key].set(cfg, raw); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg)

	return cfg, nil
}

func stringValue(raw any) (string, error) {
	switch t := raw.(type) {
	case nil:
		return "", nil
	case []int:
		return joinInts(t), nil
	case []string:
		return strings.Join(t, ","), nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, err := cast.ToStringE(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return cast.ToStringE(raw)
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.mode", d.Client.Mode)

	// Auth
	v.SetDefault("auth.refresh_path", d.Auth.RefreshPath)
	v.SetDefault("auth.dev_ping_path", d.Auth.DevPingPath)
	v.SetDefault("auth.failure_statuses", d.Auth.FailureStatuses)
	v.SetDefault("auth.expired_details", d.Auth.ExpiredDetails)
	v.SetDefault("auth.refresh_timeout", d.Auth.RefreshTimeout)

	// Generator
	v.SetDefault("generator.partial_event", d.Generator.PartialEvent)
}
