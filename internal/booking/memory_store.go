package booking

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory SessionStore with idle expiry. Suitable for
// single-instance deployments and tests; use RedisStore when sessions must
// survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	nowFn    func() time.Time
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// NewMemoryStore creates a store expiring sessions after ttl of inactivity.
// A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		nowFn:    time.Now,
	}
}

// WithNow overrides the clock, used by tests.
func (s *MemoryStore) WithNow(nowFn func() time.Time) *MemoryStore {
	s.nowFn = nowFn
	return s
}

// Get returns the session for userID, or nil when absent or expired.
// Expired entries are removed lazily.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.nowFn().After(entry.expires) {
		s.mu.Lock()
		delete(s.sessions, userID)
		s.mu.Unlock()
		return nil, nil
	}
	sess := entry.session
	return &sess, nil
}

// Put stores the session and refreshes its idle expiry.
func (s *MemoryStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	s.sessions[sess.UserID] = memoryEntry{
		session: *sess,
		expires: s.nowFn().Add(s.ttl),
	}
	s.mu.Unlock()
	return nil
}

// Delete removes the session for userID, if any.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}
