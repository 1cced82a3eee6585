// Package credentials stores the server URL and API token the CLI uses to
// reach a running emudecky server.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultConfigDir is the directory under the XDG config home.
	DefaultConfigDir = "emudecky"
	// FileName is the name of the credentials file.
	FileName = "credentials.json"
	// FilePermissions for the credentials file (read/write for owner only).
	FilePermissions = 0600
	// DirPermissions for the credentials directory.
	DirPermissions = 0700
)

// ErrNoToken indicates no token is saved.
var ErrNoToken = errors.New("no API token saved - run 'emudecky token --save' first")

// Remote is a saved connection to a server.
type Remote struct {
	ServerURL string    `json:"server_url"`
	Token     string    `json:"token,omitempty"`
	Client    string    `json:"client,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the token has expired. Tokens without an
// expiry never expire.
func (r *Remote) IsExpired() bool {
	if r.ExpiresAt.IsZero() {
		return false
	}
	// Consider expired if within 60 seconds of expiration
	return time.Now().Add(60 * time.Second).After(r.ExpiresAt)
}

// Store manages the credentials file.
type Store struct {
	path   string
	remote *Remote
}

// NewStore opens the credentials file at its default location. A missing
// file yields an empty store.
func NewStore() (*Store, error) {
	path, err := defaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(path)
}

// NewStoreAt opens the credentials file at path.
func NewStoreAt(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		s.remote = &Remote{}
	}
	return s, nil
}

func defaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DefaultConfigDir, FileName), nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	s.remote = &Remote{}
	if err := json.Unmarshal(data, s.remote); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), DirPermissions); err != nil {
		return fmt.Errorf("cannot create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(s.remote, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, FilePermissions)
}

// Remote returns a copy of the saved connection.
func (s *Store) Remote() Remote {
	return *s.remote
}

// Token returns the saved token, or ErrNoToken when none is saved or it
// has expired.
func (s *Store) Token() (string, error) {
	if s.remote.Token == "" || s.remote.IsExpired() {
		return "", ErrNoToken
	}
	return s.remote.Token, nil
}

// SetRemote replaces the saved connection and writes the file.
func (s *Store) SetRemote(r Remote) error {
	s.remote = &r
	return s.save()
}

// Clear removes the saved token, keeping the server URL.
func (s *Store) Clear() error {
	s.remote.Token = ""
	s.remote.Client = ""
	s.remote.ExpiresAt = time.Time{}
	return s.save()
}

// Path returns the path of the credentials file.
func (s *Store) Path() string {
	return s.path
}
