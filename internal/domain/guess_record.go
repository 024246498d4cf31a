package domain

import "time"

// Outcome tells whether a guess was confirmed or rejected by the player.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
)

// GuessRecord is one append-only entry of the learning log.
// Correct guesses fill Answer; wrong guesses fill CorrectAnswer, WrongGuess
// and ConversationLength.
type GuessRecord struct {
	Outcome            Outcome   `json:"outcome"`
	SessionID          string    `json:"sessionId,omitempty"`
	RequestID          string    `json:"requestId,omitempty"`
	Answer             string    `json:"answer,omitempty"`
	CorrectAnswer      string    `json:"correctAnswer,omitempty"`
	WrongGuess         string    `json:"wrongGuess,omitempty"`
	ConversationLength int       `json:"conversationLength,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}
