// Package store provides durable persistence for the learning log.
package store

import (
	"context"

	"github.com/ashureev/twentyq/internal/domain"
)

// Repository persists guess records.
type Repository interface {
	// AppendGuessRecord stores one record. Records are never updated.
	AppendGuessRecord(ctx context.Context, rec *domain.GuessRecord) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
