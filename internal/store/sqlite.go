package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/twentyq/internal/domain"
	"github.com/ashureev/twentyq/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	appendMaxRetries = 3
	appendBaseDelay  = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Repository = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS guess_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		outcome TEXT NOT NULL,
		session_id TEXT,
		request_id TEXT,
		answer TEXT,
		correct_answer TEXT,
		wrong_guess TEXT,
		conversation_length INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_guess_records_created ON guess_records(created_at);
	CREATE INDEX IF NOT EXISTS idx_guess_records_outcome ON guess_records(outcome);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AppendGuessRecord inserts rec.
// Implements retry logic with exponential backoff to handle SQLITE_BUSY errors.
func (s *SQLiteStore) AppendGuessRecord(ctx context.Context, rec *domain.GuessRecord) error {
	for i := 0; i < appendMaxRetries; i++ {
		err := s.appendOnce(ctx, rec)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < appendMaxRetries-1 {
			delay := appendBaseDelay * time.Duration(1<<i) // exponential backoff: 50ms, 100ms, 200ms
			slog.Debug("AppendGuessRecord failed with SQLITE_BUSY, retrying",
				"session_id", rec.SessionID,
				"attempt", i+1,
				"delay", delay)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("append guess record: %w", ctx.Err())
			}
		}

		return fmt.Errorf("append guess record after %d attempts: %w", i+1, err)
	}
	return nil
}

func (s *SQLiteStore) appendOnce(ctx context.Context, rec *domain.GuessRecord) error {
	query := `
	INSERT INTO guess_records (
		outcome, session_id, request_id, answer, correct_answer, wrong_guess,
		conversation_length, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		string(rec.Outcome), nullString(rec.SessionID), nullString(rec.RequestID),
		nullString(rec.Answer), nullString(rec.CorrectAnswer), nullString(rec.WrongGuess),
		rec.ConversationLength, ts.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert guess record: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
