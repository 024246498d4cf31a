package dialogue

import (
	"math/rand/v2"

	"github.com/ashureev/twentyq/internal/domain"
)

// openingStrategies seed a new game. All of them lead with gender.
var openingStrategies = []string{
	`Ask your first question. Start with gender ("Is your character a female?" or "Is your character a male?"). Start directly with a short question (3-5 words).`,
	`Ask your first question. Gender eliminates half of all possibilities, so ask whether the character is male or female. Start directly with a short question (3-5 words).`,
	`Ask your first question. Think like a seasoned twenty questions player: open with gender ("Is your character a man?" or "Is your character a woman?"). Start directly with a short question (3-5 words).`,
	`Ask your first question. Begin with the character's gender, then vary topics on later turns. Start directly with a short question (3-5 words).`,
}

const duplicateContextSize = 5

// Input is the session state a prompt is composed from.
type Input struct {
	Phase      Phase
	History    []domain.Message
	GuessReady bool
}

// Composer builds per-turn instructions from session state.
type Composer struct {
	classifier Classifier
	pick       func(n int) int
}

// NewComposer returns a composer using c for topic classification.
// A nil classifier falls back to the keyword classifier.
func NewComposer(c Classifier) *Composer {
	if c == nil {
		c = NewKeywordClassifier()
	}
	return &Composer{classifier: c, pick: rand.IntN}
}

// WithPicker replaces the random source used to choose opening strategies.
func (c *Composer) WithPicker(pick func(n int) int) *Composer {
	c.pick = pick
	return c
}

// Classifier returns the classifier the composer uses.
func (c *Composer) Classifier() Classifier {
	return c.classifier
}

// OpeningPrompt returns a randomly selected opening strategy used as the
// seeded first user turn of a game.
func (c *Composer) OpeningPrompt() string {
	return openingStrategies[c.pick(len(openingStrategies))]
}

// Compose renders the instruction for in.
func (c *Composer) Compose(in Input) string {
	return Render(c.Plan(in))
}

// Escalate appends the duplicate-retry directive to an instruction.
func (c *Composer) Escalate(instruction string, history []domain.Message) string {
	asked := AskedQuestions(history)
	if len(asked) > duplicateContextSize {
		asked = asked[len(asked)-duplicateContextSize:]
	}
	return instruction + "\n\n" + RetryAfterDuplicate{Recent: asked}.Render()
}

// Plan returns the ordered directives for in.
func (c *Composer) Plan(in Input) []Directive {
	if in.Phase == PhaseStart {
		return []Directive{BaseRules{Phase: PhaseStart}, ForceTopic{Tag: TagGender}}
	}

	asked := AskedQuestions(in.History)
	pairs := Pairs(in.History)
	facts := CollectFacts(c.classifier, pairs)
	rejected := RejectedGuessNames(in.History)

	if in.Phase == PhaseAskNext && in.GuessReady {
		return []Directive{ReadyToGuess{Facts: facts, Rejected: rejected}}
	}

	var occupationAsked, genderAsked bool
	for _, q := range asked {
		tags := c.classifier.Classify(q)
		occupationAsked = occupationAsked || tags.Has(TagOccupation)
		genderAsked = genderAsked || tags.Has(TagGender)
	}

	directives := []Directive{BaseRules{Phase: in.Phase}}
	questionCount := domain.CountRole(in.History, domain.RoleAssistant)
	forceGender := questionCount <= 2 && !genderAsked
	if forceGender {
		directives = append(directives, ForceTopic{Tag: TagGender})
	} else {
		directives = append(directives, c.variety(asked, occupationAsked, questionCount))
	}
	if occupationAsked {
		directives = append(directives, LockTopic{Tag: TagOccupation})
	}
	if !forceGender {
		if hint := c.adaptiveHint(pairs); hint != "" {
			directives = append(directives, AdaptiveFollowUp{Hint: hint})
		}
	}
	if subjects := UnknownSubjects(pairs); len(subjects) > 0 {
		directives = append(directives, AvoidUnknown{Subjects: subjects})
	}
	if !facts.Empty() {
		directives = append(directives, SummarizeFacts{Facts: facts})
	}
	if len(rejected) > 0 {
		directives = append(directives, RejectedGuesses{Names: rejected})
	}
	if len(asked) > 0 {
		directives = append(directives, NoRepeat{Questions: asked})
	}
	return directives
}

func (c *Composer) variety(asked []string, occupationLocked bool, questionCount int) Directive {
	if len(asked) == 0 {
		return VaryTopics{QuestionCount: questionCount}
	}
	tally := CountTags(c.classifier, asked, RecencyWindow)
	candidates := c.classifier.Classify(asked[len(asked)-1]).Ordered()
	candidates = append(candidates, AllTags...)
	for _, tag := range candidates {
		if tally[tag] >= 1 {
			return AvoidTopic{Tag: tag, Alternatives: alternatives(tag, occupationLocked)}
		}
	}
	if n := len(asked); n >= 2 && asked[n-1] == asked[n-2] {
		return VaryTopics{Repeated: true}
	}
	return VaryTopics{QuestionCount: questionCount}
}

func alternatives(avoid Tag, occupationLocked bool) []Tag {
	var out []Tag
	for _, t := range AllTags {
		if t == avoid || (occupationLocked && t == TagOccupation) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (c *Composer) adaptiveHint(pairs []Pair) string {
	if len(pairs) == 0 {
		return ""
	}
	last := pairs[len(pairs)-1]
	if IsGuess(last.Question) {
		return ""
	}
	tags := c.classifier.Classify(last.Question)
	switch ClassifyAnswer(last.Answer) {
	case AnswerYes:
		switch {
		case tags.Has(TagRealFictional):
			return "Based on the answer, ask about time period, nationality, or specific achievements - NOT occupation yet."
		case tags.Has(TagGender):
			return "Based on the answer, ask about appearance, relationships, or distinctive features - NOT occupation yet."
		case tags.Has(TagOccupation):
			return "Based on the answer, ask about SPECIFIC appearance details, achievements, or distinctive features - NOT another occupation question."
		}
	case AnswerNo:
		return `Based on the "no" answer, switch to a COMPLETELY different topic - don't ask similar questions.`
	}
	return ""
}
