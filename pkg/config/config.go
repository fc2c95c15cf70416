package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/novelist/pkg/auth"
	"github.com/papercomputeco/novelist/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// orderedKeys lists the config keys in TOML section order.
var orderedKeys = []string{
	"client.api_target",
	"client.mode",
	"auth.refresh_path",
	"auth.dev_ping_path",
	"auth.failure_statuses",
	"auth.expired_details",
	"auth.refresh_timeout",
	"generator.partial_event",
}

// ValidConfigKeys returns all supported configuration key names in a stable,
// logical order matching the TOML section layout.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target
// .novelist/ directory. If the file does not exist, returns NewDefaultConfig()
// so callers always receive a fully-populated Config. Fields explicitly set in
// the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Client.APITarget == "" {
		cfg.Client.APITarget = defaults.Client.APITarget
	}
	if cfg.Client.Mode == "" {
		cfg.Client.Mode = defaults.Client.Mode
	}

	if cfg.Auth.RefreshPath == "" {
		cfg.Auth.RefreshPath = defaults.Auth.RefreshPath
	}
	if cfg.Auth.DevPingPath == "" {
		cfg.Auth.DevPingPath = defaults.Auth.DevPingPath
	}
	if len(cfg.Auth.FailureStatuses) == 0 {
		cfg.Auth.FailureStatuses = defaults.Auth.FailureStatuses
	}
	if len(cfg.Auth.ExpiredDetails) == 0 {
		cfg.Auth.ExpiredDetails = defaults.Auth.ExpiredDetails
	}
	if cfg.Auth.RefreshTimeout == "" {
		cfg.Auth.RefreshTimeout = defaults.Auth.RefreshTimeout
	}

	if cfg.Generator.PartialEvent == "" {
		cfg.Generator.PartialEvent = defaults.Generator.PartialEvent
	}
}

// SaveConfig persists the configuration to config.toml in the target .novelist/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// Policy returns the expired-token policy described by the auth section.
func (c *Config) Policy() auth.Policy {
	return auth.Policy{
		FailureStatuses: c.Auth.FailureStatuses,
		ExpiredDetails:  c.Auth.ExpiredDetails,
	}
}

// RefreshTimeout parses auth.refresh_timeout.
func (c *Config) RefreshTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.RefreshTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing auth.refresh_timeout: %w", err)
	}
	return d, nil
}

// IsDevelopment reports whether the client runs against a development server.
func (c *Config) IsDevelopment() bool {
	return c.Client.Mode == ModeDevelopment
}
