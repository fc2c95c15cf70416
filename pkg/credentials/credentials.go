// Package credentials persists the session token pair in tokens.toml inside
// the .novelist/ directory.
package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/novelist/pkg/auth"
	"github.com/papercomputeco/novelist/pkg/dotdir"
	"github.com/papercomputeco/novelist/pkg/logger"
)

const (
	tokensFile = "tokens.toml"

	currentVersion = 0
)

var _ auth.TokenStore = (*Manager)(nil)

// Manager reads and writes tokens.toml and serves as the auth.TokenStore for
// the CLI. The pair is cached after the first read; Watch keeps the cache in
// sync with writes from other processes.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
	logger     *slog.Logger

	mu     sync.RWMutex
	cached *auth.TokenPair
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used by Watch.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .novelist/ directory; otherwise the standard dotdir resolution
// applies.
func NewManager(override string, opts ...Option) (*Manager, error) {
	mgr := &Manager{
		ddm:    dotdir.NewManager(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(mgr)
	}

	target, err := mgr.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, tokensFile)

	return mgr, nil
}

// Load reads tokens.toml from the target directory.
// Returns empty Tokens if the file does not exist.
func (m *Manager) Load() (*Tokens, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Tokens{Version: currentVersion}, nil
		}
		return nil, fmt.Errorf("reading tokens: %w", err)
	}

	tokens := &Tokens{}
	if err := toml.Unmarshal(data, tokens); err != nil {
		return nil, fmt.Errorf("parsing tokens: %w", err)
	}

	return tokens, nil
}

// Save writes tokens to tokens.toml with 0600 permissions.
func (m *Manager) Save(tokens *Tokens) error {
	if tokens == nil {
		return errors.New("cannot save nil tokens")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(tokens); err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing tokens: %w", err)
	}

	return nil
}

// Tokens implements auth.TokenStore.
func (m *Manager) Tokens() (auth.TokenPair, error) {
	m.mu.RLock()
	cached := m.cached
	m.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	return m.reload()
}

// SetTokens implements auth.TokenStore.
func (m *Manager) SetTokens(pair auth.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.Save(tokensFromPair(pair)); err != nil {
		return err
	}
	m.cached = &pair

	return nil
}

// SetAccessToken implements auth.TokenStore. The stored refresh token is kept.
func (m *Manager) SetAccessToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.Load()
	if err != nil {
		return err
	}
	tokens.Token = token

	if err := m.Save(tokens); err != nil {
		return err
	}
	pair := tokens.Pair()
	m.cached = &pair

	return nil
}

// Clear implements auth.TokenStore by removing tokens.toml.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.targetPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing tokens: %w", err)
	}
	m.cached = &auth.TokenPair{}

	return nil
}

// Watch reloads the cached pair whenever tokens.toml changes on disk, until
// ctx ends. It always returns a non-nil error; ctx.Err() on cancellation.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating tokens watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(m.targetPath)); err != nil {
		return fmt.Errorf("watching tokens dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(m.targetPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if _, err := m.reload(); err != nil {
				m.logger.Warn("reloading tokens", "error", err)
				continue
			}
			m.logger.Debug("tokens reloaded", "op", event.Op.String())
		case err := <-watcher.Errors:
			return fmt.Errorf("tokens watcher error: %w", err)
		}
	}
}

func (m *Manager) reload() (auth.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.Load()
	if err != nil {
		return auth.TokenPair{}, err
	}
	pair := tokens.Pair()
	m.cached = &pair

	return pair, nil
}

// GetTarget returns the resolved path to the tokens file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}
