// Package session assembles the pieces every API command needs: resolved
// settings, a logger, the stored token pair, the refresh coordinator and
// the API client on top of it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/novelist/pkg/auth"
	"github.com/papercomputeco/novelist/pkg/client"
	"github.com/papercomputeco/novelist/pkg/cliui"
	"github.com/papercomputeco/novelist/pkg/config"
	"github.com/papercomputeco/novelist/pkg/credentials"
	"github.com/papercomputeco/novelist/pkg/logger"
)

// ErrNotLoggedIn is returned by EnsureLogin when no token is stored and the
// server is not in development mode.
var ErrNotLoggedIn = errors.New("not logged in")

// Options configures Open.
type Options struct {
	// ConfigDir overrides .novelist/ directory resolution.
	ConfigDir string

	// Settings is the resolved configuration. Required.
	Settings *config.Config

	Logger *slog.Logger

	// Transport carries requests to the server. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// OnSessionEnd is called after a failed refresh has cleared the stored
	// tokens.
	OnSessionEnd func(error)
}

// Session is an authenticated connection to the novelist API.
type Session struct {
	Settings    *config.Config
	Tokens      *credentials.Manager
	Auth        *auth.RefreshClient
	Coordinator *auth.Coordinator
	Client      *client.Client

	logger *slog.Logger

	mu      sync.Mutex
	closers []func() error
}

// Open builds a Session from opts. It does not contact the server.
func Open(opts Options) (*Session, error) {
	if opts.Settings == nil {
		return nil, errors.New("settings are required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	refreshTimeout, err := opts.Settings.RefreshTimeout()
	if err != nil {
		return nil, err
	}

	tokens, err := credentials.NewManager(opts.ConfigDir, credentials.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("opening credentials: %w", err)
	}

	target := opts.Settings.Client.APITarget
	refresher := auth.NewRefreshClient(&auth.RefreshClientConfig{
		BaseURL:     target,
		RefreshPath: opts.Settings.Auth.RefreshPath,
		DevPingPath: opts.Settings.Auth.DevPingPath,
		HTTPClient:  &http.Client{Transport: transport},
	})

	coord, err := auth.NewCoordinator(&auth.Config{
		BaseURL:        target,
		RefreshPath:    opts.Settings.Auth.RefreshPath,
		Store:          tokens,
		Refresher:      refresher,
		Policy:         opts.Settings.Policy(),
		RefreshTimeout: refreshTimeout,
		OnSessionEnd:   opts.OnSessionEnd,
		Transport:      transport,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating auth coordinator: %w", err)
	}

	c, err := client.New(&client.Config{
		BaseURL:     target,
		HTTPClient:  &http.Client{Transport: coord},
		PartialName: opts.Settings.Generator.PartialEvent,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		Settings:    opts.Settings,
		Tokens:      tokens,
		Auth:        refresher,
		Coordinator: coord,
		Client:      c,
		logger:      log,
	}, nil
}

// Logger returns the session's logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// DevPing asks a development server for a fresh token pair and stores it.
func (s *Session) DevPing(ctx context.Context) (auth.TokenPair, error) {
	pair, err := s.Auth.DevPing(ctx)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if err := s.Tokens.SetTokens(pair); err != nil {
		return auth.TokenPair{}, err
	}
	s.logger.Debug("session bootstrapped", "target", s.Settings.Client.APITarget)
	return pair, nil
}

// EnsureLogin makes sure a token pair is stored. In development mode a
// missing pair is obtained with DevPing; otherwise ErrNotLoggedIn is
// returned.
func (s *Session) EnsureLogin(ctx context.Context) error {
	pair, err := s.Tokens.Tokens()
	if err != nil {
		return err
	}
	if pair.AccessToken != "" || pair.RefreshToken != "" {
		return nil
	}
	if !s.Settings.IsDevelopment() {
		return ErrNotLoggedIn
	}
	_, err = s.DevPing(ctx)
	return err
}

// Watch follows tokens.toml for changes made by other novelist processes
// until Close.
func (s *Session) Watch(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Tokens.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("token watcher stopped", "error", err)
		}
	}()
	s.onClose(func() error {
		cancel()
		<-done
		return nil
	})
}

// Close stops the token watcher and closes the log file, if any.
func (s *Session) Close() error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i]())
	}
	return errors.Join(errs...)
}

func (s *Session) onClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// FromCommand resolves settings from the flags of cmd (flag > env >
// config.toml > defaults), builds the logger and opens a Session.
func FromCommand(cmd *cobra.Command) (*Session, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.ClientFlags, []string{
		config.FlagAPITarget,
		config.FlagMode,
		config.FlagRefreshTimeout,
		config.FlagPartialEvent,
	})

	settings, err := config.Resolve(v)
	if err != nil {
		return nil, err
	}

	stderr := cmd.ErrOrStderr()
	log, closeLog, err := NewLogger(stderr, debug, logFile)
	if err != nil {
		return nil, err
	}

	s, err := Open(Options{
		ConfigDir: configDir,
		Settings:  settings,
		Logger:    log,
		OnSessionEnd: func(cause error) {
			fmt.Fprintf(stderr, "%s %s\n", cliui.FailMark,
				cliui.WarnStyle.Render(fmt.Sprintf("Session ended (%v). Run `novelist auth dev-ping` to start a new one.", cause)))
		},
	})
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	s.onClose(closeLog)

	return s, nil
}

// NewLogger builds the CLI logger: warnings (or everything with debug) on
// stderr, plus a JSON copy of every record at debug level in logFile when
// set. The returned func closes the log file.
func NewLogger(stderr io.Writer, debug bool, logFile string) (*slog.Logger, func() error, error) {
	opts := []logger.Option{
		logger.WithWriter(stderr),
		logger.WithPretty(cliui.IsTerminal(stderr)),
		logger.WithPrefix("novelist"),
	}
	if debug {
		opts = append(opts, logger.WithDebug(true))
	} else {
		opts = append(opts, logger.WithLevel(slog.LevelWarn))
	}
	console := logger.New(opts...)

	if logFile == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(logger.WithWriter(f), logger.WithJSON(true), logger.WithDebug(true))

	return logger.Multi(console, file), f.Close, nil
}
