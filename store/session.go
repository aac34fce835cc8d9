package store

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinema-ticket-cli/model"
)

const sessionFile = "session.json"

// Session is the signed-in user's credential slot.
type Session struct {
	Token   string     `json:"token"`
	User    model.User `json:"user"`
	SavedAt time.Time  `json:"saved_at"`
}

// SessionStore persists the single session slot of this client. It is safe
// for concurrent use; TUI commands read the token from background goroutines.
type SessionStore struct {
	path string

	mu      sync.Mutex
	loaded  bool
	current Session
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultSessionStore stores the slot under the user config directory.
func DefaultSessionStore() (*SessionStore, error) {
	path, err := configPath(sessionFile)
	if err != nil {
		return nil, err
	}
	return NewSessionStore(path), nil
}

// Load returns the stored session. A token whose exp claim has passed is
// treated as a logout and removed.
func (s *SessionStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Session{}, false, err
	}
	if s.current.Token == "" {
		return Session{}, false, nil
	}
	if TokenExpired(s.current.Token, time.Now()) {
		if err := s.clearLocked(); err != nil {
			return Session{}, false, err
		}
		return Session{}, false, nil
	}
	return s.current, true, nil
}

func (s *SessionStore) Save(session Session) error {
	if session.Token == "" {
		return errors.New("session token is required")
	}
	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(s.path, session); err != nil {
		return err
	}
	s.current = session
	s.loaded = true
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

// Token returns the bearer token, or "" when nobody is signed in.
func (s *SessionStore) Token() string {
	session, ok, err := s.Load()
	if err != nil || !ok {
		return ""
	}
	return session.Token
}

// User returns the signed-in user, if any.
func (s *SessionStore) User() (model.User, bool) {
	session, ok, err := s.Load()
	if err != nil || !ok {
		return model.User{}, false
	}
	return session.User, true
}

func (s *SessionStore) loadLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			s.current = Session{}
			return nil
		}
		return err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		// A corrupt slot is dropped rather than blocking startup.
		_ = os.Remove(s.path)
		session = Session{}
	}
	s.current = session
	s.loaded = true
	return nil
}

func (s *SessionStore) clearLocked() error {
	s.current = Session{}
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// TokenExpired reports whether a JWT carries an exp claim before now. The
// signature is not checked; the API does that. Tokens that are not JWTs, or
// carry no exp, are never considered expired here.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
