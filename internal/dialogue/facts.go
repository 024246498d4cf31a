package dialogue

import (
	"regexp"
	"strings"

	"github.com/ashureev/twentyq/internal/domain"
)

// AnswerKind is the coarse meaning of a player's answer.
type AnswerKind int

const (
	AnswerOther AnswerKind = iota
	AnswerYes
	AnswerNo
	AnswerUnknown
)

var (
	unknownPhrases = []string{
		"don't know", "dont know", "don’t know", "do not know", "not sure", "unsure",
		"no idea", "idk", "unknown", "can't say", "cannot say",
	}
	noPattern = regexp.MustCompile(`^(?:no|nope|nah)\b|\bprobably not\b|\bnot really\b`)
	yearRegex = regexp.MustCompile(`\b(?:1[0-9]{3}|20[0-9]{2})s?\b`)
	agePhrase = regexp.MustCompile(`\b(?:over|under|older than|younger than|above|below)\s+\d+`)
)

// ClassifyAnswer maps a free-form answer to yes, no, unknown or other.
// "Probably" counts as yes and "probably not" as no.
func ClassifyAnswer(answer string) AnswerKind {
	lower := strings.ToLower(strings.TrimSpace(answer))
	if lower == "" {
		return AnswerOther
	}
	for _, p := range unknownPhrases {
		if strings.Contains(lower, p) {
			return AnswerUnknown
		}
	}
	if noPattern.MatchString(lower) {
		return AnswerNo
	}
	if strings.Contains(lower, "yes") || strings.Contains(lower, "probably") {
		return AnswerYes
	}
	return AnswerOther
}

// ConfidenceWindow is how many recent user answers feed Confidence.
const ConfidenceWindow = 5

// Confidence is the share of yes-like answers among the last five user turns.
func Confidence(history []domain.Message) float64 {
	answers := UserAnswers(history)
	if len(answers) > ConfidenceWindow {
		answers = answers[len(answers)-ConfidenceWindow:]
	}
	if len(answers) == 0 {
		return 0
	}
	yes := 0
	for _, a := range answers {
		if ClassifyAnswer(a) == AnswerYes {
			yes++
		}
	}
	return float64(yes) / float64(len(answers))
}

// Subjects the player has said they don't know about.
const (
	SubjectAge         = "age"
	SubjectHeight      = "height"
	SubjectWeight      = "weight"
	SubjectNationality = "nationality"
	SubjectTimePeriod  = "time period"
)

var subjectKeywords = []struct {
	subject  string
	keywords []string
}{
	{SubjectAge, []string{"age", "aged", "old", "older", "young", "younger", "elderly", "teen"}},
	{SubjectHeight, []string{"tall", "short", "height", "feet", "foot", "cm", "inches"}},
	{SubjectWeight, []string{"weight", "overweight", "heavy", "thin", "slim", "skinny", "pounds", "kg"}},
	{SubjectNationality, DefaultKeywords[TagNationality]},
	{SubjectTimePeriod, []string{"century", "decade", "era", "born", "died", "historical", "ancient", "modern", "alive"}},
}

// UnknownSubject derives the coarse subject of a question the player could
// not answer. It returns "" when no subject can be derived.
func UnknownSubject(question string) string {
	lower := strings.ToLower(question)
	if yearRegex.MatchString(lower) {
		return SubjectTimePeriod
	}
	if agePhrase.MatchString(lower) {
		return SubjectAge
	}
	for _, s := range subjectKeywords {
		for _, kw := range s.keywords {
			if containsWordPrefix(lower, kw) {
				return s.subject
			}
		}
	}
	return ""
}

// UnknownSubjects returns the distinct subjects of every question answered
// with "don't know", in first-seen order.
func UnknownSubjects(pairs []Pair) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range pairs {
		if ClassifyAnswer(p.Answer) != AnswerUnknown {
			continue
		}
		if s := UnknownSubject(p.Question); s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Facts summarizes what the player has confirmed and ruled out.
type Facts struct {
	Confirmed   []string
	Excluded    []string
	Appearance  []string
	Constraints []string
}

// Empty reports whether no facts were collected.
func (f Facts) Empty() bool {
	return len(f.Confirmed) == 0 && len(f.Excluded) == 0 && len(f.Appearance) == 0 && len(f.Constraints) == 0
}

// CollectFacts turns yes/no answered questions into fact statements.
// Baldness and having hair are mutually exclusive; the latest answer wins.
func CollectFacts(c Classifier, pairs []Pair) Facts {
	var f Facts
	var hasHair *bool
	for _, p := range pairs {
		if IsGuess(p.Question) {
			continue
		}
		kind := ClassifyAnswer(p.Answer)
		if kind != AnswerYes && kind != AnswerNo {
			continue
		}
		statement := strings.TrimRight(strings.TrimSpace(p.Question), "?")
		if kind == AnswerYes {
			f.Confirmed = append(f.Confirmed, statement)
		} else {
			f.Excluded = append(f.Excluded, statement)
		}

		if !c.Classify(p.Question).Has(TagAppearance) {
			continue
		}
		verdict := "yes"
		if kind == AnswerNo {
			verdict = "no"
		}
		f.Appearance = append(f.Appearance, statement+" -> "+verdict)

		lower := strings.ToLower(p.Question)
		switch {
		case strings.Contains(lower, "bald"):
			v := kind == AnswerNo
			hasHair = &v
		case strings.Contains(lower, "hair") && kind == AnswerYes:
			v := true
			hasHair = &v
		}
	}
	if hasHair != nil {
		if *hasHair {
			f.Constraints = append(f.Constraints, "the character HAS hair (NOT bald)")
		} else {
			f.Constraints = append(f.Constraints, "the character is BALD (no hair)")
		}
	}
	return f
}
