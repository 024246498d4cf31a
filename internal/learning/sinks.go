package learning

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ashureev/twentyq/internal/domain"
	"github.com/ashureev/twentyq/internal/store"
)

// RepositorySink writes records into a store.Repository.
type RepositorySink struct {
	repo store.Repository
}

// NewRepositorySink wraps repo. The sink owns repo and closes it.
func NewRepositorySink(repo store.Repository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Write(ctx context.Context, rec *domain.GuessRecord) error {
	return s.repo.AppendGuessRecord(ctx, rec)
}

func (s *RepositorySink) Close() error {
	return s.repo.Close()
}

// FileSink appends records as newline-delimited JSON.
type FileSink struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// NewFileSink opens path for appending, creating parent directories.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create learning log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open learning log: %w", err)
	}
	return &FileSink{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSink) Write(_ context.Context, rec *domain.GuessRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode learning record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write learning record: %w", err)
	}
	return s.w.Flush()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("flush learning log: %w", err)
	}
	return s.f.Close()
}
