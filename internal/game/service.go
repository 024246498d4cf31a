// Package game runs twenty-questions sessions: it keeps per-session history,
// asks the model for the next question or guess and decides when to guess.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/twentyq/internal/dialogue"
	"github.com/ashureev/twentyq/internal/domain"
	"github.com/ashureev/twentyq/internal/enrich"
	"github.com/ashureev/twentyq/internal/learning"
	"github.com/ashureev/twentyq/internal/llm"
	"github.com/ashureev/twentyq/internal/session"
)

const (
	correctGuessReply = "Yes, that's correct!"
	correctMessage    = "I guessed it! Thanks for playing."
)

// Enricher resolves display information for a guessed name.
type Enricher interface {
	Lookup(ctx context.Context, name string) enrich.Info
}

// Service is the session controller.
type Service struct {
	sessions session.Store
	llm      llm.Client
	enricher Enricher
	recorder learning.Recorder
	composer *dialogue.Composer
	cfg      Config
	newID    func() string
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithComposer replaces the default keyword-classifier composer.
func WithComposer(c *dialogue.Composer) Option {
	return func(s *Service) { s.composer = c }
}

// WithIDGenerator replaces UUID session ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// NewService wires the controller. A nil recorder disables the learning log.
func NewService(store session.Store, client llm.Client, enricher Enricher, recorder learning.Recorder, cfg Config, opts ...Option) *Service {
	if recorder == nil {
		recorder = learning.Noop()
	}
	s := &Service{
		sessions: store,
		llm:      client,
		enricher: enricher,
		recorder: recorder,
		composer: dialogue.NewComposer(nil),
		cfg:      cfg,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartResult is the first question of a new game.
type StartResult struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

// AnswerInput is one player answer, or a request to go back.
type AnswerInput struct {
	SessionID string
	Answer    string
	// History, when set, replaces the server copy before the answer is applied.
	// With GoBack it must be present; nil means missing, empty means empty.
	History   []domain.Message
	GoBack    bool
	RequestID string
}

// AnswerResult is the next question or guess.
type AnswerResult struct {
	Question         string  `json:"question"`
	IsGuess          bool    `json:"isGuess"`
	QuestionCount    int     `json:"questionCount"`
	Progress         int     `json:"progress"`
	GuessName        *string `json:"guessName,omitempty"`
	GuessImage       *string `json:"guessImage,omitempty"`
	GuessDescription *string `json:"guessDescription,omitempty"`
}

// GuessResultInput is the player's verdict on the last guess.
type GuessResultInput struct {
	SessionID    string
	Correct      bool
	ActualAnswer string
	RequestID    string
}

// GuessResultOutcome is either the end of the game or the follow-up question.
type GuessResultOutcome struct {
	Success          bool    `json:"success,omitempty"`
	Message          string  `json:"message,omitempty"`
	Question         string  `json:"question,omitempty"`
	Continue         bool    `json:"continue,omitempty"`
	IsGuess          bool    `json:"isGuess,omitempty"`
	GuessName        *string `json:"guessName,omitempty"`
	GuessImage       *string `json:"guessImage,omitempty"`
	GuessDescription *string `json:"guessDescription,omitempty"`
}

// Start creates a session and asks the model for the opening question.
// There is no duplicate guard on the first turn.
func (s *Service) Start(ctx context.Context) (*StartResult, error) {
	sess := domain.NewSession(s.newID(), s.now())
	sess.Append(domain.UserMessage(s.composer.OpeningPrompt()))

	text, err := s.complete(ctx, llm.Request{
		System:      s.composer.Compose(dialogue.Input{Phase: dialogue.PhaseStart}),
		Messages:    sess.History,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.StartMaxTokens,
	})
	if err != nil {
		turnsTotal.WithLabelValues("start", "error").Inc()
		return nil, fmt.Errorf("start game: %w", err)
	}

	sess.Append(domain.AssistantMessage(text))
	sess.State = domain.StateQuestioning
	if dialogue.IsGuess(text) {
		sess.State = domain.StateGuessPending
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	gamesStarted.Inc()
	turnsTotal.WithLabelValues("start", "ok").Inc()
	slog.Info("Game started", "session_id", sess.ID)
	return &StartResult{SessionID: sess.ID, Question: text}, nil
}

// Answer applies a player answer and returns the next question or guess.
// A failed model call leaves the session untouched so the client can resubmit.
func (s *Service) Answer(ctx context.Context, in AnswerInput) (*AnswerResult, error) {
	if in.SessionID == "" {
		return nil, ErrSessionNotFound
	}

	var result *AnswerResult
	err := s.sessions.WithLock(ctx, in.SessionID, func(sess *domain.Session) error {
		if in.GoBack {
			r, err := s.goBack(sess, in.History)
			result = r
			return err
		}

		if len(in.History) > 0 {
			if err := validateRoles(in.History); err != nil {
				return err
			}
			sess.ReplaceHistory(in.History)
		}

		answer := strings.TrimSpace(in.Answer)
		if answer == "" {
			return invalid("Answer is required")
		}
		sess.Append(domain.UserMessage(answer))

		questionCount := sess.QuestionCount()
		confidence := dialogue.Confidence(sess.History)
		ready := s.cfg.GuessReady(questionCount, confidence)

		turn, err := s.nextTurn(ctx, sess, dialogue.PhaseAskNext, ready)
		if err != nil {
			return err
		}

		result = &AnswerResult{
			Question:      turn.text,
			IsGuess:       turn.isGuess,
			QuestionCount: questionCount + 1,
			Progress:      Progress(questionCount, confidence, turn.isGuess),
		}
		if turn.guess != nil {
			result.GuessName = &turn.guess.Name
			result.GuessImage = turn.guess.ImageURL
			result.GuessDescription = turn.guess.Description
		}

		slog.Info("Answer processed",
			"session_id", sess.ID,
			"request_id", in.RequestID,
			"question_count", result.QuestionCount,
			"confidence", confidence,
			"guess_ready", ready,
			"is_guess", turn.isGuess)
		return nil
	})
	if err != nil {
		turnsTotal.WithLabelValues(answerKind(in), "error").Inc()
		return nil, s.mapError(err)
	}
	turnsTotal.WithLabelValues(answerKind(in), "ok").Inc()
	return result, nil
}

func answerKind(in AnswerInput) string {
	if in.GoBack {
		return "back"
	}
	return "answer"
}

// goBack replaces the history with the client copy and re-derives the
// current question from it without calling the model.
func (s *Service) goBack(sess *domain.Session, history []domain.Message) (*AnswerResult, error) {
	if history == nil {
		return nil, invalid("Invalid conversation history")
	}
	if len(history) == 0 {
		return nil, invalid("Empty conversation history")
	}
	if err := validateRoles(history); err != nil {
		return nil, err
	}
	last, ok := domain.LastOfRole(history, domain.RoleAssistant)
	if !ok || strings.TrimSpace(last.Content) == "" {
		return nil, invalid("No previous question found in history")
	}

	sess.ReplaceHistory(history)
	isGuess := dialogue.IsGuess(last.Content)
	sess.State = domain.StateQuestioning
	if isGuess {
		sess.State = domain.StateGuessPending
	}

	questionCount := sess.QuestionCount()
	confidence := dialogue.Confidence(sess.History)
	slog.Info("Went back", "session_id", sess.ID, "question_count", questionCount)
	return &AnswerResult{
		Question:      last.Content,
		IsGuess:       isGuess,
		QuestionCount: questionCount,
		Progress:      Progress(questionCount-1, confidence, isGuess),
	}, nil
}

func validateRoles(history []domain.Message) error {
	for _, m := range history {
		if !m.Role.Valid() {
			return invalid("Invalid conversation history")
		}
	}
	return nil
}

// GuessResult records the player's verdict on the last guess. A correct
// guess ends the game; a wrong one produces a follow-up question.
func (s *Service) GuessResult(ctx context.Context, in GuessResultInput) (*GuessResultOutcome, error) {
	if in.SessionID == "" {
		return nil, ErrSessionNotFound
	}

	actual := strings.TrimSpace(in.ActualAnswer)
	var result *GuessResultOutcome
	err := s.sessions.WithLock(ctx, in.SessionID, func(sess *domain.Session) error {
		guessed := lastGuessedName(sess)

		if in.Correct {
			if guessed != "" {
				s.recorder.Record(domain.GuessRecord{
					Outcome:   domain.OutcomeCorrect,
					SessionID: sess.ID,
					RequestID: in.RequestID,
					Answer:    guessed,
					Timestamp: s.now().UTC(),
				})
			}
			sess.Append(domain.UserMessage(correctGuessReply))
			sess.State = domain.StateGameOver
			guessOutcomes.WithLabelValues(string(domain.OutcomeCorrect)).Inc()
			questionsPerGame.Observe(float64(sess.QuestionCount()))
			slog.Info("Guess confirmed", "session_id", sess.ID, "guess", guessed, "question_count", sess.QuestionCount())
			result = &GuessResultOutcome{Success: true, Message: correctMessage}
			return nil
		}

		conversationLength := len(sess.History)
		reply := "No, that's not correct. Please ask more questions."
		if actual != "" {
			reply = "No, that's not correct. The correct answer is: " + actual
		}
		sess.Append(domain.UserMessage(reply))
		sess.LastGuess = nil

		turn, err := s.nextTurn(ctx, sess, dialogue.PhasePostWrongGuess, false)
		if err != nil {
			return err
		}
		// Record only after the follow-up turn succeeds.
		if guessed != "" && actual != "" {
			s.recorder.Record(domain.GuessRecord{
				Outcome:            domain.OutcomeWrong,
				SessionID:          sess.ID,
				RequestID:          in.RequestID,
				CorrectAnswer:      actual,
				WrongGuess:         guessed,
				ConversationLength: conversationLength,
				Timestamp:          s.now().UTC(),
			})
		}
		guessOutcomes.WithLabelValues(string(domain.OutcomeWrong)).Inc()
		slog.Info("Guess rejected", "session_id", sess.ID, "guess", guessed, "is_guess", turn.isGuess)

		result = &GuessResultOutcome{Question: turn.text, Continue: true, IsGuess: turn.isGuess}
		if turn.guess != nil {
			result.GuessName = &turn.guess.Name
			result.GuessImage = turn.guess.ImageURL
			result.GuessDescription = turn.guess.Description
		}
		return nil
	})
	if err != nil {
		turnsTotal.WithLabelValues("guess_result", "error").Inc()
		return nil, s.mapError(err)
	}
	turnsTotal.WithLabelValues("guess_result", "ok").Inc()
	return result, nil
}

// Lookup returns display information for a name.
func (s *Service) Lookup(ctx context.Context, name string) enrich.Info {
	return s.enricher.Lookup(ctx, name)
}

// Ping checks the session store.
func (s *Service) Ping(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

func lastGuessedName(sess *domain.Session) string {
	if sess.LastGuess != nil && sess.LastGuess.Name != "" {
		return sess.LastGuess.Name
	}
	last, ok := sess.LastAssistant()
	if !ok || !dialogue.IsGuess(last.Content) {
		return ""
	}
	name, _ := dialogue.ExtractName(last.Content)
	return name
}

type turn struct {
	text    string
	isGuess bool
	guess   *domain.GuessInfo
}

// nextTurn composes the instruction, generates the reply and appends it.
func (s *Service) nextTurn(ctx context.Context, sess *domain.Session, phase dialogue.Phase, guessReady bool) (turn, error) {
	instruction := s.composer.Compose(dialogue.Input{
		Phase:      phase,
		History:    sess.History,
		GuessReady: guessReady,
	})
	text, err := s.generateWithDedup(ctx, sess, instruction)
	if err != nil {
		return turn{}, err
	}

	sess.Append(domain.AssistantMessage(text))
	t := turn{text: text, isGuess: dialogue.IsGuess(text)}
	if !t.isGuess {
		sess.State = domain.StateQuestioning
		return t, nil
	}

	sess.GuessCount++
	sess.State = domain.StateGuessPending
	if name, ok := dialogue.ExtractName(text); ok {
		info := s.enricher.Lookup(ctx, name)
		t.guess = &domain.GuessInfo{Name: name, ImageURL: info.ImageURL, Description: info.Description}
		sess.LastGuess = t.guess
	}
	return t, nil
}

// generateWithDedup asks for the next turn and regenerates repeated
// questions a bounded number of times, escalating the instruction and the
// temperature. The last candidate is accepted even if it still repeats.
func (s *Service) generateWithDedup(ctx context.Context, sess *domain.Session, instruction string) (string, error) {
	history := sess.History
	req := llm.Request{
		System:      instruction,
		Messages:    sess.RecentHistory(s.cfg.HistoryWindow),
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
	text, err := s.complete(ctx, req)
	if err != nil {
		return "", err
	}

	detector := dialogue.NewDuplicateDetector(dialogue.AskedQuestions(history))
	for attempt := 1; !dialogue.IsGuess(text) && detector.IsDuplicate(text); attempt++ {
		if attempt > s.cfg.DuplicateRetries {
			duplicateRetries.WithLabelValues("accepted").Inc()
			slog.Warn("Accepting repeated question after retries", "question", text, "retries", s.cfg.DuplicateRetries)
			break
		}
		duplicateRetries.WithLabelValues("retry").Inc()
		slog.Debug("Model repeated a question, regenerating", "question", text, "attempt", attempt)

		req.System = s.composer.Escalate(instruction, history)
		req.Temperature = s.cfg.RetryTemperature
		if text, err = s.complete(ctx, req); err != nil {
			return "", err
		}
	}
	return text, nil
}

// complete calls the model and sanitizes its reply.
func (s *Service) complete(ctx context.Context, req llm.Request) (string, error) {
	raw, err := s.llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	text := dialogue.Sanitize(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply after sanitizing", llm.ErrGeneration)
	}
	return text, nil
}

func (s *Service) mapError(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Progress estimates how close the game is to a guess, 0..95 for questions
// and exactly 100 for a guess.
func Progress(questionCount int, confidence float64, isGuess bool) int {
	if isGuess {
		return 100
	}
	if questionCount < 0 {
		questionCount = 0
	}
	base := math.Min(90, math.Round(float64(questionCount)/20*100))
	boost := 0.0
	if confidence > 0.6 {
		boost = math.Min(15, confidence*20)
	}
	return int(math.Round(math.Min(95, base+boost)))
}
