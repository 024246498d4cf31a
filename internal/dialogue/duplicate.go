package dialogue

import (
	"strings"
	"unicode"
)

// SimilarityThreshold is the token overlap at which a question counts as a repeat.
const SimilarityThreshold = 0.7

const minTokenLength = 3

var stopWords = map[string]bool{
	"the": true, "your": true, "character": true, "is": true, "are": true, "does": true,
	"have": true, "has": true, "was": true, "were": true, "can": true, "could": true,
	"would": true, "should": true,
}

// DuplicateDetector remembers earlier questions and flags new ones that
// repeat them verbatim or share most of their words.
type DuplicateDetector struct {
	asked map[string]bool
	words map[string]bool
}

// NewDuplicateDetector indexes the given lowercased questions.
func NewDuplicateDetector(asked []string) *DuplicateDetector {
	d := &DuplicateDetector{asked: map[string]bool{}, words: map[string]bool{}}
	for _, q := range asked {
		d.asked[normalizeQuestion(q)] = true
		for _, w := range tokens(q) {
			d.words[w] = true
		}
	}
	return d
}

// Similarity is the number of words the question shares with all earlier
// questions, divided by the larger of the two word sets.
func (d *DuplicateDetector) Similarity(question string) float64 {
	words := tokens(question)
	if len(words) == 0 || len(d.words) == 0 {
		return 0
	}
	matching := 0
	for _, w := range words {
		if d.words[w] {
			matching++
		}
	}
	return float64(matching) / float64(max(len(words), len(d.words)))
}

// IsDuplicate reports whether question repeats an earlier one.
func (d *DuplicateDetector) IsDuplicate(question string) bool {
	if d.asked[normalizeQuestion(question)] {
		return true
	}
	return d.Similarity(question) >= SimilarityThreshold
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// tokens returns the distinct meaningful words of text.
func tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len([]rune(f)) < minTokenLength || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
