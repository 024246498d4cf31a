package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/twentyq/internal/domain"
)

// MemoryStore keeps sessions in process memory. Sessions idle longer than
// the TTL are invisible and removed by Sweep; when the store holds more than
// MaxSessions the least recently updated ones are evicted.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*domain.Session
	locks       *KeyedMutex
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryOptions configures a MemoryStore. Zero values disable the limit.
type MemoryOptions struct {
	TTL         time.Duration
	MaxSessions int
	Now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MemoryStore{
		sessions:    make(map[string]*domain.Session),
		locks:       NewKeyedMutex(),
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		now:         opts.Now,
	}
}

// Get returns a copy of a live session.
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.Expired(m.now(), m.ttl) {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Put stores a copy of s and enforces the session cap.
func (m *MemoryStore) Put(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	m.evictOverflow(s.ID)
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// WithLock runs fn against the session under its per-session lock.
func (m *MemoryStore) WithLock(ctx context.Context, id string, fn func(s *domain.Session) error) error {
	return runLocked(ctx, m.locks, m, m.now, id, fn)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close drops every session.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*domain.Session)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep(context.Context) (int, error) {
	if m.ttl <= 0 {
		return 0, nil
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now, m.ttl) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// evictOverflow drops the least recently updated sessions other than keep
// until the cap holds. Callers must hold m.mu.
func (m *MemoryStore) evictOverflow(keep string) {
	for m.maxSessions > 0 && len(m.sessions) > m.maxSessions {
		var oldestID string
		var oldest time.Time
		for id, s := range m.sessions {
			if id == keep {
				continue
			}
			if oldestID == "" || s.UpdatedAt.Before(oldest) {
				oldestID, oldest = id, s.UpdatedAt
			}
		}
		if oldestID == "" {
			return
		}
		delete(m.sessions, oldestID)
		slog.Info("session evicted to enforce cap", "session_id", oldestID, "max_sessions", m.maxSessions)
	}
}
