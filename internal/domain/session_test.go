package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionQuestionCountAndLastAssistant(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.Append(UserMessage("seed"))
	s.Append(AssistantMessage("Is your character male?"))
	s.Append(UserMessage("Yes"))
	s.Append(AssistantMessage("Is your character real?"))

	assert.Equal(t, 2, s.QuestionCount())
	last, ok := s.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "Is your character real?", last.Content)
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.Append(AssistantMessage("Q1"))
	s.LastGuess = &GuessInfo{Name: "Someone"}

	c := s.Clone()
	c.Append(UserMessage("A1"))
	c.LastGuess.Name = "Other"

	assert.Len(t, s.History, 1)
	assert.Equal(t, "Someone", s.LastGuess.Name)
}

func TestRecentHistory(t *testing.T) {
	s := NewSession("s1", time.Now())
	for i := 0; i < 12; i++ {
		s.Append(UserMessage("x"))
	}
	assert.Len(t, s.RecentHistory(10), 10)
	assert.Len(t, s.RecentHistory(0), 12)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", now.Add(-2*time.Hour))
	assert.True(t, s.Expired(now, time.Hour))
	assert.False(t, s.Expired(now, 0))
}
