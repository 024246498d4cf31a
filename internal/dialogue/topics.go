package dialogue

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ashureev/twentyq/internal/domain"
)

// Tag is a semantic category a question can touch.
type Tag string

const (
	TagOccupation    Tag = "occupation"
	TagGender        Tag = "gender"
	TagRealFictional Tag = "real_fictional"
	TagAppearance    Tag = "appearance"
	TagRelationship  Tag = "relationship"
	TagTimePeriod    Tag = "time_period"
	TagNationality   Tag = "nationality"
)

// AllTags lists every tag in variety-selection priority order.
var AllTags = []Tag{
	TagOccupation,
	TagGender,
	TagRealFictional,
	TagAppearance,
	TagRelationship,
	TagTimePeriod,
	TagNationality,
}

// Label returns a human readable name used inside prompts.
func (t Tag) Label() string {
	switch t {
	case TagOccupation:
		return "occupation/work"
	case TagRealFictional:
		return "real/fictional"
	case TagTimePeriod:
		return "time period"
	case TagRelationship:
		return "relationships"
	default:
		return string(t)
	}
}

// TagSet is an unordered set of tags.
type TagSet map[Tag]struct{}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag Tag) bool {
	_, ok := s[tag]
	return ok
}

// Ordered returns the set members in priority order.
func (s TagSet) Ordered() []Tag {
	var out []Tag
	for _, t := range AllTags {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Classifier maps free text to topic tags.
type Classifier interface {
	Classify(text string) TagSet
}

// KeywordClassifier matches tags by case-insensitive keyword substrings.
// A keyword only counts when it starts a word, so "man" does not hit "german".
type KeywordClassifier struct {
	keywords map[Tag][]string
}

var _ Classifier = (*KeywordClassifier)(nil)

// DefaultKeywords is the keyword list used by NewKeywordClassifier.
var DefaultKeywords = map[Tag][]string{
	TagOccupation: {
		"actor", "actress", "acting", "movie", "film", "role", "job", "occupation", "profession", "work",
		"career", "singer", "musician", "artist", "director", "writer", "performer",
		"entertainer", "athlete", "politician", "president",
	},
	TagGender: {"male", "female", "man", "woman", "gender", "boy", "girl"},
	TagRealFictional: {
		"real", "fictional", "fictional character", "real person", "exists", "made up",
	},
	TagAppearance: {
		"hair", "eye", "tall", "short", "appearance", "look", "wear", "clothing", "dress",
		"bald", "beard", "mustache", "glasses", "tattoo", "piercing", "skin", "weight",
		"build", "muscle", "thin", "fat", "slim", "curly", "straight", "blonde", "brunette",
		"black", "brown", "blue", "green", "color", "colour", "accent", "voice", "catchphrase",
		"fashion", "style",
	},
	TagRelationship: {
		"married", "single", "relationship", "spouse", "partner", "parent", "child", "sibling",
	},
	TagTimePeriod: {
		"century", "decade", "born", "died", "alive", "historical", "modern", "ancient", "year",
	},
	TagNationality: {
		"american", "british", "french", "german", "japanese", "chinese", "nationality",
		"country", "from",
	},
}

// NewKeywordClassifier returns a classifier over DefaultKeywords.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: DefaultKeywords}
}

// Classify returns every tag whose keyword list hits text.
func (c *KeywordClassifier) Classify(text string) TagSet {
	lower := strings.ToLower(text)
	set := TagSet{}
	for tag, words := range c.keywords {
		for _, w := range words {
			if containsWordPrefix(lower, w) {
				set[tag] = struct{}{}
				break
			}
		}
	}
	return set
}

func containsWordPrefix(text, word string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		i += offset
		if prev, _ := utf8.DecodeLastRuneInString(text[:i]); i == 0 || !unicode.IsLetter(prev) {
			return true
		}
		offset = i + 1
	}
	return false
}

// RecencyWindow is how many recent questions feed the variety tally.
const RecencyWindow = 3

// Tally counts how many of the given questions matched each tag.
type Tally map[Tag]int

// CountTags tallies tag hits over the last window questions.
func CountTags(c Classifier, questions []string, window int) Tally {
	if window > 0 && len(questions) > window {
		questions = questions[len(questions)-window:]
	}
	tally := Tally{}
	for _, q := range questions {
		for tag := range c.Classify(q) {
			tally[tag]++
		}
	}
	return tally
}

// Pair is one assistant question followed by the user's answer.
type Pair struct {
	Question string
	Answer   string
}

// Pairs extracts consecutive (assistant, user) turns from history.
func Pairs(history []domain.Message) []Pair {
	var out []Pair
	for i := 0; i+1 < len(history); i++ {
		if history[i].Role == domain.RoleAssistant && history[i+1].Role == domain.RoleUser {
			out = append(out, Pair{Question: history[i].Content, Answer: history[i+1].Content})
		}
	}
	return out
}

// AskedQuestions returns the lowercased, trimmed text of every assistant turn
// that is not a guess, in order.
func AskedQuestions(history []domain.Message) []string {
	var out []string
	for _, m := range history {
		if m.Role != domain.RoleAssistant || IsGuess(m.Content) {
			continue
		}
		out = append(out, strings.ToLower(strings.TrimSpace(m.Content)))
	}
	return out
}

// UserAnswers returns the content of every user turn, in order.
func UserAnswers(history []domain.Message) []string {
	var out []string
	for _, m := range history {
		if m.Role == domain.RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

// RejectedGuessNames returns the names of guesses the player turned down.
// A guess counts as rejected when the next user turn starts with "no".
func RejectedGuessNames(history []domain.Message) []string {
	var out []string
	seen := map[string]bool{}
	for i := 0; i+1 < len(history); i++ {
		m := history[i]
		if m.Role != domain.RoleAssistant || !IsGuess(m.Content) {
			continue
		}
		if history[i+1].Role != domain.RoleUser || ClassifyAnswer(history[i+1].Content) != AnswerNo {
			continue
		}
		if name, ok := ExtractName(m.Content); ok && !seen[strings.ToLower(name)] {
			seen[strings.ToLower(name)] = true
			out = append(out, name)
		}
	}
	return out
}
