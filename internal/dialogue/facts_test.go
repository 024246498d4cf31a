package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/twentyq/internal/domain"
)

func TestClassifyAnswer(t *testing.T) {
	tests := map[string]AnswerKind{
		"Yes":                  AnswerYes,
		"Probably":             AnswerYes,
		"Probably not":         AnswerNo,
		"No":                   AnswerNo,
		"no.":                  AnswerNo,
		"Don't know":           AnswerUnknown,
		"Not sure":             AnswerUnknown,
		"No idea":              AnswerUnknown,
		"":                     AnswerOther,
		"Yes, that's correct!": AnswerYes,
		"No, that's not correct. The correct answer is: X": AnswerNo,
		"Nobody knows": AnswerOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, ClassifyAnswer(in), in)
	}
}

func TestConfidenceUsesLastFiveAnswers(t *testing.T) {
	var history []domain.Message
	for _, a := range []string{"No", "No", "Yes", "Yes", "Probably", "Yes", "No"} {
		history = append(history, domain.AssistantMessage("Q?"), domain.UserMessage(a))
	}
	assert.InDelta(t, 0.8, Confidence(history), 1e-9)
	assert.Equal(t, 0.0, Confidence(nil))
}

func TestUnknownSubject(t *testing.T) {
	tests := map[string]string{
		"Is your character over 50?":                   SubjectAge,
		"Is your character tall?":                      SubjectHeight,
		"Is your character overweight?":                SubjectWeight,
		"Is your character British?":                   SubjectNationality,
		"Was your character born before 1950?":         SubjectTimePeriod,
		"Did your character live in the 18th century?": SubjectTimePeriod,
		"Does your character sing?":                    "",
	}
	for q, want := range tests {
		assert.Equal(t, want, UnknownSubject(q), q)
	}
}

func TestUnknownSubjectsDistinct(t *testing.T) {
	pairs := []Pair{
		{Question: "Is your character tall?", Answer: "Don't know"},
		{Question: "Is your character over six feet?", Answer: "not sure"},
		{Question: "Is your character old?", Answer: "Don't know"},
		{Question: "Is your character British?", Answer: "No"},
	}
	assert.Equal(t, []string{SubjectHeight, SubjectAge}, UnknownSubjects(pairs))
}

func TestCollectFactsBaldAndHairAreExclusive(t *testing.T) {
	c := NewKeywordClassifier()
	pairs := []Pair{
		{Question: "Is your character male?", Answer: "Yes"},
		{Question: "Is your character bald?", Answer: "Yes"},
		{Question: "Is your character American?", Answer: "No"},
		{Question: "I think you are thinking of: Vin Diesel", Answer: "No"},
	}
	f := CollectFacts(c, pairs)
	assert.Equal(t, []string{"Is your character male", "Is your character bald"}, f.Confirmed)
	assert.Equal(t, []string{"Is your character American"}, f.Excluded)
	assert.Equal(t, []string{"Is your character bald -> yes"}, f.Appearance)
	assert.Equal(t, []string{"the character is BALD (no hair)"}, f.Constraints)

	pairs = append(pairs, Pair{Question: "Does your character have blonde hair?", Answer: "Yes"})
	f = CollectFacts(c, pairs)
	assert.Equal(t, []string{"the character HAS hair (NOT bald)"}, f.Constraints)
}
