// Package learning records the outcome of every guess for offline analysis.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/twentyq/internal/domain"
)

const (
	defaultQueueSize = 256
	sinkWriteTimeout = 5 * time.Second
)

// Config controls the recorder.
type Config struct {
	Enabled   bool
	QueueSize int
}

// Sink durably stores guess records.
type Sink interface {
	Write(ctx context.Context, rec *domain.GuessRecord) error
	Close() error
}

// Recorder accepts guess records without blocking the caller.
type Recorder interface {
	Record(rec domain.GuessRecord)
	Close() error
}

type noopRecorder struct{}

func (noopRecorder) Record(domain.GuessRecord) {}
func (noopRecorder) Close() error              { return nil }

// Noop returns a recorder that drops everything.
func Noop() Recorder { return noopRecorder{} }

type asyncRecorder struct {
	logger *slog.Logger
	sinks  []Sink
	queue  chan domain.GuessRecord
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a single writer goroutine that fans records out to sinks
// in arrival order. Records are dropped with a warning when the queue is full.
func NewRecorder(cfg Config, logger *slog.Logger, sinks ...Sink) (Recorder, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("learning recorder enabled without sinks")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	r := &asyncRecorder{
		logger: logger,
		sinks:  sinks,
		queue:  make(chan domain.GuessRecord, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r, nil
}

func (r *asyncRecorder) Record(rec domain.GuessRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- rec:
		recordsTotal.WithLabelValues(string(rec.Outcome), "queued").Inc()
	default:
		recordsTotal.WithLabelValues(string(rec.Outcome), "dropped").Inc()
		r.logger.Warn("learning queue full, dropping record",
			"session_id", rec.SessionID,
			"outcome", rec.Outcome)
	}
}

func (r *asyncRecorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		for _, sink := range r.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
			err := sink.Write(ctx, &rec)
			cancel()
			if err != nil {
				recordsTotal.WithLabelValues(string(rec.Outcome), "failed").Inc()
				r.logger.Error("failed to write learning record",
					"session_id", rec.SessionID,
					"request_id", rec.RequestID,
					"outcome", rec.Outcome,
					"error", err)
			}
		}
	}
}

// Close stops accepting records, drains the queue and closes every sink.
func (r *asyncRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done

	var errs []error
	for _, sink := range r.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
