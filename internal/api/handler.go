// Package api provides HTTP handlers for the twenty questions API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/twentyq/internal/enrich"
	"github.com/ashureev/twentyq/internal/game"
	"github.com/ashureev/twentyq/internal/llm"
)

const defaultMaxRequestBodySize = 1 << 20

// Game is the session controller the handlers drive.
type Game interface {
	Start(ctx context.Context) (*game.StartResult, error)
	Answer(ctx context.Context, in game.AnswerInput) (*game.AnswerResult, error)
	GuessResult(ctx context.Context, in game.GuessResultInput) (*game.GuessResultOutcome, error)
	Lookup(ctx context.Context, name string) enrich.Info
	Ping(ctx context.Context) error
}

var _ Game = (*game.Service)(nil)

// Handler serves the game endpoints.
type Handler struct {
	game        Game
	maxBodySize int64
}

// NewHandler creates a Handler. A non-positive maxBodySize uses 1MB.
func NewHandler(g Game, maxBodySize int64) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	return &Handler{game: g, maxBodySize: maxBodySize}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// failure is the body of 5xx responses.
type failure struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeGameError maps service errors to status codes. summary is the
// client-facing message for server-side failures.
func writeGameError(w http.ResponseWriter, summary, requestID string, err error) {
	var verr *game.ValidationError
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		Error(w, http.StatusNotFound, "Game session not found")
	case errors.As(err, &verr):
		Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		slog.Warn(summary, "error", err, "request_id", requestID)
		JSON(w, http.StatusGatewayTimeout, failure{Error: summary, Details: err.Error(), Retryable: true})
	default:
		slog.Error(summary, "error", err, "request_id", requestID)
		JSON(w, http.StatusInternalServerError, failure{Error: summary, Details: err.Error()})
	}
}

// decode reads a JSON body capped at the handler's size limit. It writes the
// error response itself and reports whether decoding succeeded.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
