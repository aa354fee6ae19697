package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions binds opaque tokens to user ids for the lifetime of a login.
// Sessions live in memory only; they are deliberately not one of the
// persisted tables. A user may hold any number of concurrent sessions;
// issuing a token never invalidates another one.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]sessionEntry
}

type sessionEntry struct {
	userID    int64
	expiresAt time.Time
}

// NewSessions creates a session manager whose tokens expire after ttl.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]sessionEntry),
	}
}

// TTL reports the lifetime applied to newly issued tokens.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue binds a fresh token to userID and returns it.
func (s *Sessions) Issue(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = sessionEntry{userID: userID, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token
}

// Resolve returns the user id bound to token. Missing, expired, or
// tampered tokens resolve to (0, false), the anonymous caller, never an
// error. Expired entries are dropped on touch.
func (s *Sessions) Resolve(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return 0, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.tokens, token)
		return 0, false
	}
	return entry.userID, true
}

// Revoke invalidates token. Revoking an unknown token is a no-op.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// Purge drops every expired entry and reports how many were removed.
func (s *Sessions) Purge() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, entry := range s.tokens {
		if now.After(entry.expiresAt) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, expired ones included until the
// next Purge or Resolve touches them.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// StartJanitor purges expired entries every interval until the returned
// stop function is called. Stop is idempotent.
func (s *Sessions) StartJanitor(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Purge()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
