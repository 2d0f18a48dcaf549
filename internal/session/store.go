package session

import (
	"sync"

	"github.com/callsight/call-analysis/internal/types"
)

// Store is the in-memory analysis cache plus the recent-session history.
// Purely additive for the process lifetime; entries leave only through an
// explicit Clear.
type Store struct {
	mu      sync.RWMutex
	byPrint map[string]*types.Session
	recent  []string // fingerprints in insertion order, no duplicates
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{byPrint: make(map[string]*types.Session)}
}

// Get returns the cached session for a fingerprint, or nil.
func (s *Store) Get(fingerprint string) *types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byPrint[fingerprint]
}

// Put caches a session under its fingerprint. An existing entry is
// overwritten; the history keeps the first-seen position rather than
// moving the fingerprint to the front.
func (s *Store) Put(sess *types.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, seen := s.byPrint[sess.Fingerprint]
	s.byPrint[sess.Fingerprint] = sess
	if !seen {
		s.recent = append(s.recent, sess.Fingerprint)
	}
}

// ListRecent returns the cached sessions, most recent first.
func (s *Store) ListRecent() []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Session, 0, len(s.recent))
	for i := len(s.recent) - 1; i >= 0; i-- {
		if sess, ok := s.byPrint[s.recent[i]]; ok {
			out = append(out, sess)
		}
	}
	return out
}

// Len reports the number of cached sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPrint)
}

// Clear drops every cached session. Only explicit user action calls this.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPrint = make(map[string]*types.Session)
	s.recent = nil
}
