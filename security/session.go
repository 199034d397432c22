package security

import (
	"crypto/subtle"
	"sync"
	"time"

	"vpndrop/files-api/util"
)

// Session is one issued admin token. Kept after invalidation so a
// rejected request can be told apart from a never-issued token in logs
type Session struct {
	Token         string
	IssuedAt      time.Time
	InvalidatedAt *time.Time
}

// SessionStore tracks admin sessions keyed by token. At most one
// session is active at a time: issuing a new token invalidates every
// prior one immediately, with no grace period. Nothing is persisted, a
// restart logs everyone out
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Issue mints a fresh opaque token and makes it the only valid one
func (s *SessionStore) Issue() (string, error) {
	token, err := util.GenerateToken(32)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for t, sess := range s.sessions {
		if sess.InvalidatedAt == nil {
			inv := now
			sess.InvalidatedAt = &inv
			continue
		}

		// Stop dead sessions from piling up across many logins
		if now.Sub(*sess.InvalidatedAt) > 24*time.Hour {
			delete(s.sessions, t)
		}
	}

	s.sessions[token] = &Session{
		Token:    token,
		IssuedAt: now,
	}

	return token, nil
}

// Validate reports whether the presented token matches a currently
// active session. Unknown and invalidated tokens both deny
func (s *SessionStore) Validate(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.InvalidatedAt != nil {
			continue
		}

		if subtle.ConstantTimeCompare([]byte(sess.Token), []byte(token)) == 1 {
			return true
		}
	}

	return false
}
