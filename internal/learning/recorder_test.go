package learning

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/twentyq/internal/domain"
	"github.com/ashureev/twentyq/internal/store"
)

type memorySink struct {
	mu      sync.Mutex
	records []domain.GuessRecord
	err     error
	closed  bool
}

func (s *memorySink) Write(_ context.Context, rec *domain.GuessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *memorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestRecorderDisabledIsNoop(t *testing.T) {
	r, err := NewRecorder(Config{Enabled: false}, nil)
	require.NoError(t, err)
	r.Record(domain.GuessRecord{Outcome: domain.OutcomeCorrect})
	assert.NoError(t, r.Close())
}

func TestRecorderRequiresSinks(t *testing.T) {
	_, err := NewRecorder(Config{Enabled: true}, nil)
	assert.Error(t, err)
}

func TestRecorderDrainsInOrderOnClose(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	r, err := NewRecorder(Config{Enabled: true, QueueSize: 64}, nil, sink)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		r.Record(domain.GuessRecord{Outcome: domain.OutcomeCorrect, Answer: name})
	}
	require.NoError(t, r.Close())
	r.Record(domain.GuessRecord{Outcome: domain.OutcomeCorrect, Answer: "late"})
	require.NoError(t, r.Close())

	require.Len(t, sink.records, 3)
	assert.Equal(t, "a", sink.records[0].Answer)
	assert.Equal(t, "c", sink.records[2].Answer)
	assert.False(t, sink.records[0].Timestamp.IsZero())
	assert.True(t, sink.closed)
}

func TestRecorderIsolatesSinkFailures(t *testing.T) {
	t.Parallel()

	failing := &memorySink{err: errors.New("disk full")}
	healthy := &memorySink{}
	r, err := NewRecorder(Config{Enabled: true}, nil, failing, healthy)
	require.NoError(t, err)

	r.Record(domain.GuessRecord{Outcome: domain.OutcomeWrong, WrongGuess: "X", CorrectAnswer: "Y"})
	require.NoError(t, r.Close())

	assert.Empty(t, failing.records)
	assert.Len(t, healthy.records, 1)
}

func TestFileSinkWritesNDJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "learning.ndjson")
	sink, err := NewFileSink(path)
	require.NoError(t, err)
	r, err := NewRecorder(Config{Enabled: true}, nil, sink)
	require.NoError(t, err)

	r.Record(domain.GuessRecord{Outcome: domain.OutcomeWrong, CorrectAnswer: "Tom Cruise", WrongGuess: "Tom Hanks", ConversationLength: 12})
	r.Record(domain.GuessRecord{Outcome: domain.OutcomeCorrect, Answer: "Tom Cruise"})
	require.NoError(t, r.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []domain.GuessRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.GuessRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "Tom Hanks", got[0].WrongGuess)
	assert.Equal(t, 12, got[0].ConversationLength)
	assert.Equal(t, domain.OutcomeCorrect, got[1].Outcome)
}

func TestRepositorySinkPersists(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "learning.db")
	repo, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	r, err := NewRecorder(Config{Enabled: true}, nil, NewRepositorySink(repo))
	require.NoError(t, err)

	r.Record(domain.GuessRecord{Outcome: domain.OutcomeCorrect, SessionID: "s1", Answer: "Ada Lovelace"})
	require.NoError(t, r.Close())

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var count int
	var answer string
	require.NoError(t, db.QueryRowContext(context.Background(),
		`SELECT COUNT(*), MAX(answer) FROM guess_records WHERE outcome = 'correct'`).Scan(&count, &answer))
	assert.Equal(t, 1, count)
	assert.Equal(t, "Ada Lovelace", answer)
}
