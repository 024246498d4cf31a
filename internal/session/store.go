// Package session keeps the server-side state of running games.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/twentyq/internal/domain"
)

// ErrNotFound is returned when no live session has the requested id.
var ErrNotFound = errors.New("session not found")

// Store persists game sessions. Implementations return copies, so a caller
// mutating a session never affects stored state until it is written back.
type Store interface {
	// Get returns a copy of the session or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Put creates or replaces a session.
	Put(ctx context.Context, s *domain.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// WithLock serializes work on one session: it loads the session, runs fn
	// and writes the result back only when fn returns nil. A session left in
	// StateGameOver is deleted instead of written.
	WithLock(ctx context.Context, id string, fn func(s *domain.Session) error) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

type backend interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
}

func runLocked(ctx context.Context, locks *KeyedMutex, b backend, now func() time.Time, id string, fn func(s *domain.Session) error) error {
	unlock, err := locks.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("lock session %s: %w", id, err)
	}
	defer unlock()

	s, err := b.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	if s.State == domain.StateGameOver {
		return b.Delete(ctx, id)
	}
	s.UpdatedAt = now()
	return b.Put(ctx, s)
}
