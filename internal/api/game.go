package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/twentyq/internal/domain"
	"github.com/ashureev/twentyq/internal/game"
)

const healthTimeout = 2 * time.Second

// RegisterRoutes mounts the game endpoints under /api/game. The given
// middlewares wrap only this route group.
func (h *Handler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/game", func(r chi.Router) {
		r.Use(middlewares...)
		r.Post("/start", h.Start)
		r.Post("/answer", h.Answer)
		r.Post("/guess-result", h.GuessResult)
		r.Get("/info/{name}", h.Info)
		r.Get("/health", h.Health)
	})
}

// Start handles POST /api/game/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	res, err := h.game.Start(r.Context())
	if err != nil {
		writeGameError(w, "Failed to start game", chiMiddleware.GetReqID(r.Context()), err)
		return
	}
	JSON(w, http.StatusOK, res)
}

type answerRequest struct {
	SessionID           string           `json:"sessionId"`
	Answer              string           `json:"answer"`
	ConversationHistory []domain.Message `json:"conversationHistory"`
	GoBack              bool             `json:"goBack"`
}

// Answer handles POST /api/game/answer, including goBack requests.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	summary := "Failed to process answer"
	if req.GoBack {
		summary = "Failed to go back"
	}

	res, err := h.game.Answer(r.Context(), game.AnswerInput{
		SessionID: req.SessionID,
		Answer:    req.Answer,
		History:   req.ConversationHistory,
		GoBack:    req.GoBack,
		RequestID: reqID,
	})
	if err != nil {
		writeGameError(w, summary, reqID, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

type guessResultRequest struct {
	SessionID    string `json:"sessionId"`
	Correct      bool   `json:"correct"`
	ActualAnswer string `json:"actualAnswer"`
}

// GuessResult handles POST /api/game/guess-result.
func (h *Handler) GuessResult(w http.ResponseWriter, r *http.Request) {
	var req guessResultRequest
	if !h.decode(w, r, &req) {
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	res, err := h.game.GuessResult(r.Context(), game.GuessResultInput{
		SessionID:    req.SessionID,
		Correct:      req.Correct,
		ActualAnswer: req.ActualAnswer,
		RequestID:    reqID,
	})
	if err != nil {
		writeGameError(w, "Failed to process guess result", reqID, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Info handles GET /api/game/info/{name}. Lookup failures yield null fields.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = strings.TrimSpace(name)
	if name == "" {
		Error(w, http.StatusBadRequest, "Name is required")
		return
	}
	JSON(w, http.StatusOK, h.game.Lookup(r.Context(), name))
}

// Health handles GET /api/game/health by pinging the session store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.game.Ping(ctx); err != nil {
		JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
