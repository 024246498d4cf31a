package dialogue

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var guessTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:I think you are thinking of|Are you thinking of|I believe you're thinking of|My guess is)[:\s]+(?:the\s+)?(.*?)(?:[?.]|$)`),
	regexp.MustCompile(`(?i)(?:Thinking of|It is|That would be)[:\s]+(?:the\s+)?(.*?)(?:[?.]|$)`),
}

var leadingThe = regexp.MustCompile(`(?i)^the\s+`)

const maxFallbackNameWords = 2

// ExtractName pulls the guessed subject's name out of a guess line.
// It is a best-effort heuristic; the result is only used for display and lookups.
func ExtractName(text string) (string, bool) {
	for _, re := range guessTemplates {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		name := strings.TrimSpace(leadingThe.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		if name != "" {
			return name, true
		}
	}

	var words []string
	for _, field := range strings.Fields(text) {
		word := strings.Map(func(r rune) rune {
			if strings.ContainsRune("?.,:;!", r) {
				return -1
			}
			return r
		}, field)
		first, _ := utf8.DecodeRuneInString(word)
		if utf8.RuneCountInString(word) > 1 && unicode.IsUpper(first) {
			words = append(words, word)
			if len(words) >= maxFallbackNameWords {
				break
			}
		}
	}
	if len(words) == 0 {
		return "", false
	}
	return strings.Join(words, " "), true
}
