// Package session owns the authenticated identity of the running client:
// the access token, the user id extracted from it, and its expiry. The
// session is persisted to the app data directory so a restart does not
// require a new login.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/echochat/internal/common"
)

const sessionFileName = "session.json"

// Session is an authenticated identity.
type Session struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the token expiry has passed. A zero expiry
// means the token carried no exp claim and is treated as non-expiring.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Provider hands out the current session to collaborators that need to
// authenticate calls.
type Provider interface {
	// Current returns the active session. Returns common.ErrNoSession when
	// nobody is logged in and common.ErrTokenExpired when the stored token
	// is past its expiry.
	Current() (*Session, error)
}

// FileStore is a Provider backed by a JSON file in the app data
// directory. Safe for concurrent use is not required; the client is the
// only writer and writes happen on login and logout.
type FileStore struct {
	path    string
	current *Session
}

// NewFileStore loads any persisted session from dir.
func NewFileStore(dir string) (*FileStore, error) {
	fs := &FileStore{path: filepath.Join(dir, sessionFileName)}

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// Corrupt session file, start logged out.
		return fs, nil
	}
	fs.current = &s
	return fs, nil
}

// Current implements Provider.
func (f *FileStore) Current() (*Session, error) {
	if f.current == nil {
		return nil, common.ErrNoSession
	}
	if f.current.Expired() {
		return nil, common.ErrTokenExpired
	}
	return f.current, nil
}

// Login derives a session from an access token and persists it.
func (f *FileStore) Login(accessToken string) (*Session, error) {
	s, err := FromToken(accessToken)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	f.current = s
	return s, nil
}

// Logout clears the persisted session.
func (f *FileStore) Logout() error {
	f.current = nil
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// FromToken extracts identity claims from an access token. The signature
// is not checked here; the server verifies it on every call, the client
// only needs the subject and expiry.
func FromToken(accessToken string) (*Session, error) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}

	s := &Session{
		UserID:      claims.Subject,
		AccessToken: accessToken,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	if s.Expired() {
		return nil, common.ErrTokenExpired
	}
	return s, nil
}
