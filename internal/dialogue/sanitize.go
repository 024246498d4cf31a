// Package dialogue holds the text heuristics that steer question generation:
// response cleanup, guess parsing, topic classification and prompt composition.
package dialogue

import (
	"regexp"
	"strings"
)

// guessLeadIns mark a model response as a final guess.
var guessLeadIns = []string{
	"i think you are thinking of",
	"are you thinking of",
	"you are thinking of",
	"i believe you're thinking of",
	"my guess is",
}

var (
	boldPattern    = regexp.MustCompile(`(?s)\*\*(.*?)\*\*`)
	italicPattern  = regexp.MustCompile(`(?s)\*(.*?)\*`)
	underPattern   = regexp.MustCompile(`(?s)__(.*?)__`)
	codePattern    = regexp.MustCompile("(?s)`(.*?)`")
	headingPattern = regexp.MustCompile(`#{1,6}\s`)
	emojiPattern   = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{1F900}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{FE0F}]`)
	spacePattern   = regexp.MustCompile(`\s+`)
	trailingAside  = regexp.MustCompile(`\s*\([^()]*\)\s*([?.!]?)\s*$`)
	greetingPrefix = regexp.MustCompile(`(?i)^(?:great|okay|ok|alright|all right|sure|hmm+|interesting|got it|hello|hi|hey|perfect|excellent|awesome|nice|good|wonderful|thanks|thank you|understood|cool|oh|ah|wow|well|right|yes|no)(?:[!.,:;]+|\.\.\.)\s*`)
)

// IsGuess reports whether text contains one of the guess lead-in phrases.
func IsGuess(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range guessLeadIns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// maxSanitizePasses bounds the fixed-point loop in Sanitize.
const maxSanitizePasses = 4

// Sanitize strips markdown, emoji and chatter from a raw model response and
// normalizes it into a single question or guess line. Sanitize(Sanitize(x))
// equals Sanitize(x).
func Sanitize(raw string) string {
	text := sanitizePass(raw)
	for i := 0; i < maxSanitizePasses; i++ {
		next := sanitizePass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func sanitizePass(raw string) string {
	if raw == "" {
		return ""
	}
	text := stripMarkdown(collapse(raw))
	text = emojiPattern.ReplaceAllString(text, "")
	text = collapse(text)
	if IsGuess(text) {
		return text
	}

	for {
		next := strings.TrimSpace(greetingPrefix.ReplaceAllString(text, ""))
		if next == text || next == "" {
			break
		}
		text = next
	}
	for {
		next := trailingAside.ReplaceAllString(text, "$1")
		if next == text {
			break
		}
		text = next
	}
	text = collapse(text)
	if text == "" {
		return ""
	}
	if !strings.HasSuffix(text, "?") && !strings.Contains(text, ":") {
		text = strings.TrimRight(text, ".!,; ")
		if text == "" {
			return ""
		}
		text += "?"
	}
	return text
}

func stripMarkdown(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = underPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = codePattern.ReplaceAllString(text, "$1")
	return headingPattern.ReplaceAllString(text, "")
}

func collapse(text string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}
