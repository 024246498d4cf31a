// Package llm talks to the language model that plays the guessing side of the game.
package llm

import (
	"context"
	"errors"

	"github.com/ashureev/twentyq/internal/domain"
)

var (
	// ErrGeneration is returned when the provider fails or answers with nothing usable.
	ErrGeneration = errors.New("llm generation failed")
	// ErrTimeout is returned when the provider did not answer within the configured timeout.
	ErrTimeout = errors.New("llm request timed out")
)

// Request is one completion call: a system instruction plus the visible turns.
type Request struct {
	System      string
	Messages    []domain.Message
	Temperature float32
	MaxTokens   int
}

// Client produces the next assistant turn for a conversation.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
