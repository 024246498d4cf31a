// Package domain contains core domain types for the twenty questions server.
package domain

import (
	"time"
)

// State is the lifecycle position of a game session.
type State string

const (
	StateAwaitingFirstQuestion State = "awaiting_first_question"
	StateQuestioning           State = "questioning"
	StateGuessPending          State = "guess_pending"
	StateGameOver              State = "game_over"
)

// GuessInfo caches the enrichment result for the most recent guess.
type GuessInfo struct {
	Name        string  `json:"name"`
	ImageURL    *string `json:"image_url,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Session holds the server-side state of one game.
type Session struct {
	ID         string     `json:"id"`
	History    []Message  `json:"history"`
	GuessCount int        `json:"guess_count"`
	LastGuess  *GuessInfo `json:"last_guess,omitempty"`
	State      State      `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewSession returns an empty session awaiting its first question.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateAwaitingFirstQuestion,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a turn to the end of the history.
func (s *Session) Append(msg Message) {
	s.History = append(s.History, msg)
}

// ReplaceHistory swaps the whole history for a copy of msgs.
func (s *Session) ReplaceHistory(msgs []Message) {
	s.History = append([]Message(nil), msgs...)
}

// QuestionCount returns the number of assistant turns in the history.
func (s *Session) QuestionCount() int {
	return CountRole(s.History, RoleAssistant)
}

// LastAssistant returns the most recent assistant turn.
func (s *Session) LastAssistant() (Message, bool) {
	return LastOfRole(s.History, RoleAssistant)
}

// RecentHistory returns the last n messages of the history.
func (s *Session) RecentHistory(n int) []Message {
	if n <= 0 || n >= len(s.History) {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]Message(nil), s.History...)
	if s.LastGuess != nil {
		g := *s.LastGuess
		c.LastGuess = &g
	}
	return &c
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}

// CountRole returns the number of messages with the given role.
func CountRole(msgs []Message, role Role) int {
	n := 0
	for _, m := range msgs {
		if m.Role == role {
			n++
		}
	}
	return n
}

// LastOfRole returns the last message with the given role.
func LastOfRole(msgs []Message, role Role) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role {
			return msgs[i], true
		}
	}
	return Message{}, false
}
