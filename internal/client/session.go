package client

import (
	"audit-service/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrNoSession = errors.New("not logged in")
	// ErrSessionInvalid is returned after the server rejected the stored token; the session has been cleared.
	ErrSessionInvalid = errors.New("session invalid or expired, log in again")
)

// Session is what a successful login leaves behind on disk.
type Session struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	State    string      `json:"state"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

// SessionStore persists a single Session as a JSON file readable only by the owner.
type SessionStore struct {
	path string
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

func (s *SessionStore) Path() string {
	return s.path
}

func (s *SessionStore) Save(session Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.Token == "" {
		return nil, ErrNoSession
	}
	return &session, nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
