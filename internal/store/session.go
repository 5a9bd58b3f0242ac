package store

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"linkvault/internal/domain"
)

// tokenBytes gives 256 bits of entropy per bearer token.
const tokenBytes = 32

// IssueSession creates a new session for the given user and returns its
// token. Token generation retries on the (negligible) chance of a collision
// rather than overwriting an existing session.
func (s *Store) IssueSession(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return "", domain.ErrNotFound
	}

	var token string
	for {
		t, err := randomID(tokenBytes)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		if _, taken := s.sessions[t]; !taken {
			token = t
			break
		}
	}

	s.sessions[token] = domain.Session{
		Username:  username,
		ExpiresAt: s.now().Add(s.tokenTTL).Unix(),
	}
	s.flushLocked()
	return token, nil
}

// ValidateToken resolves a bearer token to its username. An expired session
// is evicted as a side effect; there is no background sweep, so sessions
// linger in the snapshot until validated again or revoked by cascade.
func (s *Store) ValidateToken(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)
		s.flushLocked()
		return "", domain.ErrInvalidToken
	}
	return sess.Username, nil
}

// revokeSessionsLocked removes every session owned by username and returns
// how many were dropped. Callers hold the mutex and trigger the flush.
func (s *Store) revokeSessionsLocked(username string) int {
	revoked := 0
	for token, sess := range s.sessions {
		if sess.Username == username {
			delete(s.sessions, token)
			revoked++
		}
	}
	return revoked
}

func randomID(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
