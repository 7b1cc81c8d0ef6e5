package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/search"
)

var (
	// ErrNotFound is returned when no session exists for an ID.
	ErrNotFound = errors.New("session not found")
)

// Session is one browser's UI state: the root coordinator and its search input.
// It never holds weather data beyond what the coordinator is displaying.
type Session struct {
	ID        string
	Dashboard *dashboard.Coordinator
	Search    *search.Box

	lastSeen time.Time
}

// Factory builds the state holders for a new session.
type Factory func(id string) *Session

// MemoryStore is a concurrency-safe in-memory session store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session ID
	data map[string]*Session

	factory Factory
	now     func() time.Time

	// retention configuration
	maxSessions int           // max number of live sessions (0 = unlimited)
	maxAge      time.Duration // idle time after which a session expires (0 = unlimited)
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxSessions is <= 0, it is treated as unlimited.
func NewMemoryStore(factory Factory, maxSessions int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]*Session),
		factory:     factory,
		now:         time.Now,
		maxSessions: maxSessions,
		maxAge:      maxAge,
	}
}

// WithClock replaces the store's clock.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Get returns the session for id and marks it as seen.
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data[id]
	if !ok || s.expiredLocked(sess) {
		return nil, ErrNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// GetOrCreate returns the session for id, creating a fresh one (with a new
// ID) when id is unknown or expired.
func (s *MemoryStore) GetOrCreate(id string) (sess *Session, created bool) {
	if sess, err := s.Get(id); err == nil {
		return sess, false
	}

	newID := uuid.NewString()
	sess = s.factory(newID)
	sess.ID = newID

	s.mu.Lock()
	defer s.mu.Unlock()

	sess.lastSeen = s.now()
	s.data[newID] = sess
	s.enforceCountLocked()
	return sess, true
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.data {
		if s.expiredLocked(sess) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) expiredLocked(sess *Session) bool {
	if s.maxAge <= 0 {
		return false
	}
	return s.now().Sub(sess.lastSeen) > s.maxAge
}

// enforceCountLocked evicts the least recently seen sessions over the limit.
func (s *MemoryStore) enforceCountLocked() {
	if s.maxSessions <= 0 || len(s.data) <= s.maxSessions {
		return
	}

	sessions := make([]*Session, 0, len(s.data))
	for _, sess := range s.data {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].lastSeen.Before(sessions[j].lastSeen)
	})

	over := len(sessions) - s.maxSessions
	for _, sess := range sessions[:over] {
		delete(s.data, sess.ID)
	}
}
