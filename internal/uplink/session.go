package uplink

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// File permissions for the session file and its directory.
// The file holds a refresh token, so owner-only access.
const (
	sessionDirPermissions  = 0750
	sessionFilePermissions = 0600
)

// SessionStore persists the OAuth2 token between runs so the one-time
// authorization code is only needed on first start.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type SessionStore struct {
	path string
	mu   sync.Mutex
}

// NewSessionStore creates a store backed by the given file path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load reads the persisted token. Returns (nil, nil) when no session file
// exists yet; that is a normal first-run condition, not an error.
func (s *SessionStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}

	return &tok, nil
}

// Save writes the token to the session file, creating the directory if
// needed. The write is atomic (temp file + rename) so a crash mid-write
// never corrupts the session.
func (s *SessionStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, sessionDirPermissions); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, sessionFilePermissions); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}

	return nil
}

// persistingTokenSource wraps an oauth2.TokenSource and saves the token to
// the store whenever a refresh produces a new one.
type persistingTokenSource struct {
	src   oauth2.TokenSource
	store *SessionStore

	mu   sync.Mutex
	last *oauth2.Token
}

// Token implements oauth2.TokenSource.
func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := p.last == nil || p.last.AccessToken != tok.AccessToken
	p.last = tok
	p.mu.Unlock()

	if changed {
		// Best effort: a failed save only costs a re-auth after restart.
		_ = p.store.Save(tok)
	}

	return tok, nil
}
