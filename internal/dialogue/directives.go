package dialogue

import (
	"fmt"
	"strings"
)

// Phase selects which kind of turn an instruction is composed for.
type Phase string

const (
	PhaseStart          Phase = "start"
	PhaseAskNext        Phase = "ask_next"
	PhasePostWrongGuess Phase = "post_wrong_guess"
)

// GuessFormat is the exact line the model must use when guessing.
const GuessFormat = `"I think you are thinking of: [NAME]"`

// Directive is one independent rule of a composed instruction.
type Directive interface {
	Render() string
}

// Render concatenates directives in order, skipping empty ones.
func Render(directives []Directive) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		if text := strings.TrimSpace(d.Render()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// BaseRules are the formatting constraints every question turn carries.
type BaseRules struct {
	Phase Phase
}

func (d BaseRules) Render() string {
	var b strings.Builder
	if d.Phase == PhaseStart {
		b.WriteString("You are playing a twenty questions guessing game: the player thinks of a person or character and you find out who it is with yes/no questions. ")
	}
	b.WriteString("Your response must be ONLY one yes/no question, or one guess formatted as ")
	b.WriteString(GuessFormat)
	b.WriteString(". NO greetings, reactions, emojis, markdown, bold, asterisks, parenthetical explanations or exclamations. ")
	b.WriteString(`BE SPECIFIC - avoid vague terms like "entertainer", "famous person", "celebrity". `)
	b.WriteString(`DO NOT ask about names directly (e.g. "Is your character's first name...", "Does your character's name start with..."). `)
	b.WriteString(`Only if you are really stuck after 25+ questions, you may ask "Does your character's name rhyme with [word]?" as a last resort. `)
	b.WriteString("The person could be ANYONE - real or fictional, famous or obscure, historical or modern. ")
	b.WriteString("Ask 15-25 specific questions before guessing; each question should eliminate large groups of possibilities.")
	return b.String()
}

// VaryTopics is the generic variety nudge used when no topic needs avoiding.
type VaryTopics struct {
	QuestionCount int
	Repeated      bool
}

func (d VaryTopics) Render() string {
	switch {
	case d.Repeated:
		return "CRITICAL: You just repeated a similar question. Switch to a COMPLETELY different topic immediately."
	case d.QuestionCount >= 5:
		return `IMPORTANT: Ask VERY SPECIFIC and PERSONAL questions now - "Does your character have blonde hair?", "Is your character known for wearing glasses?", "Does your character have tattoos?", "Does your character have a distinctive accent?", "Is your character known for a catchphrase?". These specific questions help identify the exact person.`
	default:
		return "IMPORTANT: Vary your questions strategically. Ask about a different topic each time - gender, real/fictional, relationships, appearance (hair, eyes, height, distinctive features), time period, nationality, achievements. Don't ask about the same topic twice in a row."
	}
}

// AvoidTopic forbids the topic that was just asked about on the next turn.
type AvoidTopic struct {
	Tag          Tag
	Alternatives []Tag
}

func (d AvoidTopic) Render() string {
	return fmt.Sprintf("CRITICAL: You just asked about %s. Switch to a different topic - ask about %s.",
		d.Tag.Label(), joinTags(d.Alternatives))
}

// LockTopic forbids a topic for the remainder of the game.
type LockTopic struct {
	Tag Tag
}

func (d LockTopic) Render() string {
	text := fmt.Sprintf("CRITICAL: %s has already been asked about. You are FORBIDDEN from asking about %s again for the rest of this game.",
		capitalize(d.Tag.Label()), d.Tag.Label())
	if d.Tag == TagOccupation {
		text += " Do NOT ask about actor, singer, musician, athlete, politician or any other occupation."
	}
	return text
}

var forceExamples = map[Tag]string{
	TagGender:        `"Is your character male?" or "Is your character female?"`,
	TagRealFictional: `"Is your character a real person?"`,
	TagTimePeriod:    `"Is your character from the 21st century?"`,
	TagNationality:   `"Is your character American?"`,
}

// ForceTopic makes the next question be about a specific topic, overriding
// any variety guidance.
type ForceTopic struct {
	Tag Tag
}

func (d ForceTopic) Render() string {
	text := fmt.Sprintf("MANDATORY: Your next question MUST be about %s", d.Tag.Label())
	if ex, ok := forceExamples[d.Tag]; ok {
		text += " (for example " + ex + ")"
	}
	return text + ". This overrides any other topic guidance."
}

// AdaptiveFollowUp steers the next topic from the meaning of the last answer.
type AdaptiveFollowUp struct {
	Hint string
}

func (d AdaptiveFollowUp) Render() string { return d.Hint }

// AvoidUnknown forbids subjects the player said they don't know about.
type AvoidUnknown struct {
	Subjects []string
}

func (d AvoidUnknown) Render() string {
	if len(d.Subjects) == 0 {
		return ""
	}
	return fmt.Sprintf("The player does not know the answer about: %s. Do NOT ask about these subjects again.",
		strings.Join(d.Subjects, ", "))
}

// SummarizeFacts lists what is known so far as constraints.
type SummarizeFacts struct {
	Facts Facts
}

func (d SummarizeFacts) Render() string {
	if d.Facts.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("KNOWN FACTS - every question and the final guess must be consistent with them.")
	writeList(&b, "Answered yes", d.Facts.Confirmed)
	writeList(&b, "Answered no", d.Facts.Excluded)
	writeList(&b, "Appearance (hard constraints)", d.Facts.Appearance)
	writeList(&b, "Must hold", d.Facts.Constraints)
	return b.String()
}

// RejectedGuesses lists names the player already turned down.
type RejectedGuesses struct {
	Names []string
}

func (d RejectedGuesses) Render() string {
	if len(d.Names) == 0 {
		return ""
	}
	return "These guesses were already rejected by the player, never guess them again: " + strings.Join(d.Names, ", ") + "."
}

// NoRepeat lists every earlier question so the model does not reuse them.
type NoRepeat struct {
	Questions []string
}

func (d NoRepeat) Render() string {
	if len(d.Questions) == 0 {
		return ""
	}
	return "CRITICAL: DO NOT REPEAT ANY OF THESE PREVIOUS QUESTIONS: " + strings.Join(d.Questions, " | ") +
		". You MUST ask a completely NEW question that you have NOT asked before. Do not use the same words or phrases from previous questions."
}

// ReadyToGuess replaces all question guidance with a request for a guess.
type ReadyToGuess struct {
	Facts    Facts
	Rejected []string
}

func (d ReadyToGuess) Render() string {
	text := "Guess now. Format: " + GuessFormat + ". NO emojis, markdown, bold, asterisks, greetings, reactions."
	if facts := (SummarizeFacts{Facts: d.Facts}).Render(); facts != "" {
		text += "\n\n" + facts
	}
	if rejected := (RejectedGuesses{Names: d.Rejected}).Render(); rejected != "" {
		text += "\n\n" + rejected
	}
	return text
}

// RetryAfterDuplicate escalates after the model repeated a question.
type RetryAfterDuplicate struct {
	Recent []string
}

func (d RetryAfterDuplicate) Render() string {
	return "ERROR: You just repeated or asked a very similar question. Ask a COMPLETELY DIFFERENT question with different words. Previous questions: " +
		strings.Join(d.Recent, " | ")
}

func joinTags(tags []Tag) string {
	labels := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		labels = append(labels, t.Label())
	}
	labels = append(labels, "achievements")
	return strings.Join(labels, ", ")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString(": ")
	b.WriteString(strings.Join(items, "; "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
