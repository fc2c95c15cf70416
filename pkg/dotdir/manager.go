// Package dotdir resolves the .novelist/ directory that holds config.toml
// and the persisted session tokens.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the novelist directory.
	DirName = ".novelist"
)

type Manager struct {
	// home overrides os.UserHomeDir, for tests.
	home string
}

func NewManager() *Manager {
	return &Manager{}
}

// NewManagerWithHome returns a Manager that resolves the home directory to
// home instead of the current user's.
func NewManagerWithHome(home string) *Manager {
	return &Manager{home: home}
}

// Target returns the absolute path to a .novelist/ directory, creating it if
// needed. Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.novelist/ dir
//  3. Home ~/.novelist/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, DirName)

	default:
		home, err := m.homeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating novelist directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

func (m *Manager) homeDir() (string, error) {
	if m.home != "" {
		return m.home, nil
	}
	return os.UserHomeDir()
}

// localDirExists checks whether a .novelist/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, DirName))
	return err == nil && info.IsDir()
}
