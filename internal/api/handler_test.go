//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/twentyq/internal/domain"
	"github.com/ashureev/twentyq/internal/enrich"
	"github.com/ashureev/twentyq/internal/game"
	"github.com/ashureev/twentyq/internal/llm"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

type fakeGame struct {
	start       func() (*game.StartResult, error)
	answer      func(game.AnswerInput) (*game.AnswerResult, error)
	guessResult func(game.GuessResultInput) (*game.GuessResultOutcome, error)
	lookups     []string
	info        enrich.Info
	pingErr     error
}

func (f *fakeGame) Start(context.Context) (*game.StartResult, error) { return f.start() }

func (f *fakeGame) Answer(_ context.Context, in game.AnswerInput) (*game.AnswerResult, error) {
	return f.answer(in)
}

func (f *fakeGame) GuessResult(_ context.Context, in game.GuessResultInput) (*game.GuessResultOutcome, error) {
	return f.guessResult(in)
}

func (f *fakeGame) Lookup(_ context.Context, name string) enrich.Info {
	f.lookups = append(f.lookups, name)
	return f.info
}

func (f *fakeGame) Ping(context.Context) error { return f.pingErr }

func serve(t *testing.T, h *Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var got map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	}
	return w, got
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		message   string
		retryable bool
	}{
		{"not found", game.ErrSessionNotFound, http.StatusNotFound, "Game session not found", false},
		{"validation", &game.ValidationError{Message: "Answer is required"}, http.StatusBadRequest, "Answer is required", false},
		{"timeout", fmt.Errorf("%w: deadline", llm.ErrTimeout), http.StatusGatewayTimeout, "Failed to process answer", true},
		{"generation", fmt.Errorf("%w: boom", llm.ErrGeneration), http.StatusInternalServerError, "Failed to process answer", false},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "Failed to process answer", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGame{answer: func(game.AnswerInput) (*game.AnswerResult, error) { return nil, tt.err }}
			w, got := serve(t, NewHandler(g, 0), http.MethodPost, "/api/game/answer", `{"sessionId":"s1","answer":"Yes"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, got["error"])
			if tt.status >= 500 {
				assert.Contains(t, got["details"], tt.err.Error())
			}
			if tt.retryable {
				assert.Equal(t, true, got["retryable"])
			} else {
				assert.NotContains(t, got, "retryable")
			}
		})
	}
}

func TestAnswerPassesRequest(t *testing.T) {
	var seen game.AnswerInput
	g := &fakeGame{answer: func(in game.AnswerInput) (*game.AnswerResult, error) {
		seen = in
		return &game.AnswerResult{Question: "Is your character alive?", QuestionCount: 2, Progress: 5}, nil
	}}

	body := `{"sessionId":"s1","goBack":true,"conversationHistory":[{"role":"user","content":"seed"},{"role":"assistant","content":"Q?"}]}`
	w, got := serve(t, NewHandler(g, 0), http.MethodPost, "/api/game/answer", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", seen.SessionID)
	assert.True(t, seen.GoBack)
	assert.Equal(t, []domain.Message{domain.UserMessage("seed"), domain.AssistantMessage("Q?")}, seen.History)
	assert.Equal(t, "Is your character alive?", got["question"])
	assert.Equal(t, false, got["isGuess"])
	assert.NotContains(t, got, "guessName")
}

func TestAnswerHistoryPresence(t *testing.T) {
	var seen game.AnswerInput
	g := &fakeGame{answer: func(in game.AnswerInput) (*game.AnswerResult, error) {
		seen = in
		return &game.AnswerResult{}, nil
	}}
	h := NewHandler(g, 0)

	serve(t, h, http.MethodPost, "/api/game/answer", `{"sessionId":"s1","goBack":true}`)
	assert.Nil(t, seen.History)

	serve(t, h, http.MethodPost, "/api/game/answer", `{"sessionId":"s1","goBack":true,"conversationHistory":[]}`)
	assert.NotNil(t, seen.History)
	assert.Empty(t, seen.History)
}

func TestGoBackFailureSummary(t *testing.T) {
	g := &fakeGame{answer: func(game.AnswerInput) (*game.AnswerResult, error) {
		return nil, errors.New("boom")
	}}
	w, got := serve(t, NewHandler(g, 0), http.MethodPost, "/api/game/answer", `{"sessionId":"s1","goBack":true,"conversationHistory":[]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to go back", got["error"])
}

func TestInvalidBody(t *testing.T) {
	g := &fakeGame{}
	w, got := serve(t, NewHandler(g, 0), http.MethodPost, "/api/game/answer", `{"sessionId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", got["error"])
}

func TestBodyTooLarge(t *testing.T) {
	g := &fakeGame{}
	body := `{"sessionId":"s1","answer":"` + strings.Repeat("y", 256) + `"}`
	w, _ := serve(t, NewHandler(g, 64), http.MethodPost, "/api/game/answer", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestStartFailure(t *testing.T) {
	g := &fakeGame{start: func() (*game.StartResult, error) {
		return nil, fmt.Errorf("start game: %w", llm.ErrGeneration)
	}}
	w, got := serve(t, NewHandler(g, 0), http.MethodPost, "/api/game/start", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to start game", got["error"])
	assert.NotEmpty(t, got["details"])
}

func TestGuessResultFailureSummary(t *testing.T) {
	g := &fakeGame{guessResult: func(game.GuessResultInput) (*game.GuessResultOutcome, error) {
		return nil, llm.ErrGeneration
	}}
	w, got := serve(t, NewHandler(g, 0), http.MethodPost, "/api/game/guess-result", `{"sessionId":"s1","correct":false}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to process guess result", got["error"])
}

func TestInfo(t *testing.T) {
	desc := "American actor"
	g := &fakeGame{info: enrich.Info{Description: &desc}}
	w, got := serve(t, NewHandler(g, 0), http.MethodGet, "/api/game/info/Tom%20Hanks", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Tom Hanks"}, g.lookups)
	assert.Equal(t, "American actor", got["description"])
	assert.Contains(t, got, "imageUrl")
	assert.Nil(t, got["imageUrl"])
}

func TestHealth(t *testing.T) {
	g := &fakeGame{}
	w, got := serve(t, NewHandler(g, 0), http.MethodGet, "/api/game/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", got["status"])

	g.pingErr = errors.New("connection refused")
	w, got = serve(t, NewHandler(g, 0), http.MethodGet, "/api/game/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", got["status"])
}

func TestRouteMiddlewares(t *testing.T) {
	g := &fakeGame{}
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			Error(w, http.StatusTooManyRequests, "Too many requests")
		})
	}

	r := chi.NewRouter()
	NewHandler(g, 0).RegisterRoutes(r, blocked)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/game/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
