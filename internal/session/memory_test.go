package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/twentyq/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(MemoryOptions{})
	s := domain.NewSession("a", time.Now())
	s.Append(domain.AssistantMessage("Is your character male?"))
	require.NoError(t, m.Put(ctx, s))

	s.Append(domain.UserMessage("mutated after put"))
	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got.History, 1)

	got.Append(domain.UserMessage("mutated after get"))
	again, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, again.History, 1)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := NewMemoryStore(MemoryOptions{TTL: time.Hour, Now: clock.Now})
	require.NoError(t, m.Put(ctx, domain.NewSession("old", clock.Now())))

	clock.Advance(30 * time.Minute)
	require.NoError(t, m.Put(ctx, domain.NewSession("fresh", clock.Now())))

	clock.Advance(45 * time.Minute)
	_, err := m.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "fresh")
	assert.NoError(t, err)

	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStoreCapEvictsLeastRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := NewMemoryStore(MemoryOptions{MaxSessions: 2, Now: clock.Now})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Put(ctx, domain.NewSession(id, clock.Now())))
		clock.Advance(time.Minute)
	}

	assert.Equal(t, 2, m.Len())
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestWithLockCommitsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := NewMemoryStore(MemoryOptions{Now: clock.Now})
	require.NoError(t, m.Put(ctx, domain.NewSession("a", clock.Now())))

	boom := errors.New("llm down")
	err := m.WithLock(ctx, "a", func(s *domain.Session) error {
		s.Append(domain.UserMessage("Yes"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ := m.Get(ctx, "a")
	assert.Empty(t, got.History)

	clock.Advance(time.Minute)
	require.NoError(t, m.WithLock(ctx, "a", func(s *domain.Session) error {
		s.Append(domain.UserMessage("Yes"))
		return nil
	}))
	got, _ = m.Get(ctx, "a")
	assert.Len(t, got.History, 1)
	assert.Equal(t, clock.Now(), got.UpdatedAt)

	err = m.WithLock(ctx, "missing", func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithLockDeletesFinishedGames(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(MemoryOptions{})
	require.NoError(t, m.Put(ctx, domain.NewSession("a", time.Now())))

	require.NoError(t, m.WithLock(ctx, "a", func(s *domain.Session) error {
		s.State = domain.StateGameOver
		return nil
	}))
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithLockSerializesPerSession(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(MemoryOptions{})
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Put(ctx, domain.NewSession(fmt.Sprintf("s%d", i), time.Now())))
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		for j := 0; j < 20; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				err := m.WithLock(ctx, id, func(s *domain.Session) error {
					s.GuessCount++
					return nil
				})
				assert.NoError(t, err)
			}(fmt.Sprintf("s%d", i))
		}
	}
	wg.Wait()

	for i := 0; i < 3; i++ {
		got, err := m.Get(ctx, fmt.Sprintf("s%d", i))
		require.NoError(t, err)
		assert.Equal(t, 20, got.GuessCount)
	}
	assert.Equal(t, 0, m.locks.Len())
}
