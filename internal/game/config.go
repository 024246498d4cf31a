package game

// Config tunes the dialogue loop.
type Config struct {
	// GuessMinQuestions is the question count before a guess may be requested.
	GuessMinQuestions int
	// GuessMaxQuestions forces a guess regardless of confidence.
	GuessMaxQuestions int
	// GuessConfidence is the yes-share above which a guess is requested.
	GuessConfidence float64
	// HistoryWindow is how many recent messages are sent to the model.
	HistoryWindow int
	// DuplicateRetries bounds regeneration of repeated questions.
	DuplicateRetries int

	Temperature      float32
	RetryTemperature float32
	StartMaxTokens   int
	MaxTokens        int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		GuessMinQuestions: 15,
		GuessMaxQuestions: 20,
		GuessConfidence:   0.5,
		HistoryWindow:     10,
		DuplicateRetries:  3,
		Temperature:       0.7,
		RetryTemperature:  0.8,
		StartMaxTokens:    50,
		MaxTokens:         40,
	}
}

// GuessReady reports whether the next turn should be a guess.
func (c Config) GuessReady(questionCount int, confidence float64) bool {
	return questionCount >= c.GuessMinQuestions &&
		(confidence > c.GuessConfidence || questionCount >= c.GuessMaxQuestions)
}
