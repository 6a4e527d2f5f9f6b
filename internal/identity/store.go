package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// SessionFileName is the file the store keeps credentials in.
const SessionFileName = "session.json"

// Credentials is the persisted result of a sign-in.
type Credentials struct {
	IDToken      string    `json:"id_token"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Username     string    `json:"username"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the ID token is past its expiry. A zero expiry
// never expires.
func (c *Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store persists credentials as a JSON file readable only by the owner.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultSessionPath returns ~/.todoask/session.json.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".todoask", SessionFileName), nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored credentials. It returns ErrNotSignedIn when no
// session file exists.
func (s *Store) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotSignedIn
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeFileReadFailed, "failed to read session file", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, apperrors.NewFileUnmarshalError(s.path, "JSON", err)
	}
	if creds.IDToken == "" && creds.RefreshToken == "" {
		return nil, ErrNotSignedIn
	}
	return &creds, nil
}

// Save writes creds, replacing any previous session.
func (s *Store) Save(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDirectoryFailed, "failed to create session directory", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeFileMarshal, "failed to encode session", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeFileWriteFailed, "failed to write session file", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is not an
// error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.Wrap(apperrors.ErrCodeFileWriteFailed, "failed to remove session file", err)
	}
	return nil
}
