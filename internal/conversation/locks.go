package conversation

import "sync"

// userLocks serializes message processing per user. Duplicate webhook
// deliveries for the same user otherwise race on the session entry.
// Entries are reference-counted so the map does not grow with every user
// ever seen.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// acquire blocks until the caller owns the lock for userID.
func (l *userLocks) acquire(userID string) *userLock {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return entry
}

// release unlocks and drops the entry when no one else is waiting.
func (l *userLocks) release(userID string, entry *userLock) {
	entry.mu.Unlock()

	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()
}
