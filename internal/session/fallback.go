package session

import (
	"sync"
	"time"

	"github.com/heartlinehq/heartline/internal/domain"
)

// fallbackTable is the in-process session tier used when the cache misses
// or is down. Sessions are cloned on the way in and out; the lock guards
// the map, not the session objects themselves.
type fallbackTable struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func newFallbackTable() *fallbackTable {
	return &fallbackTable{
		sessions: make(map[string]*domain.Session),
	}
}

// get returns a copy of the stored session, or nil when absent.
func (t *fallbackTable) get(id string) *domain.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessions[id].Clone()
}

// put stores a copy of the session keyed by phone number.
func (t *fallbackTable) put(sess *domain.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sess.PhoneNumber] = sess.Clone()
}

func (t *fallbackTable) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// sweep evicts sessions with no activity since cutoff and returns the
// number removed.
func (t *fallbackTable) sweep(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, sess := range t.sessions {
		if sess.IdleSince(cutoff) {
			delete(t.sessions, id)
			evicted++
		}
	}
	return evicted
}
