package llm

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	// ProviderOpenAI selects the OpenAI-compatible HTTP client.
	ProviderOpenAI = "openai"
	// ProviderMock selects a canned client for local development.
	ProviderMock = "mock"
)

var mockQuestions = []string{
	"Is your character male?",
	"Is your character a real person?",
	"Is your character alive today?",
	"Is your character American?",
	"Is your character known for music?",
}

// New creates a Client for cfg.Provider.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm api key is required")
		}
		return NewOpenAIClient(cfg), nil
	case ProviderMock:
		slog.Warn("LLM provider is mock, questions are canned")
		replies := make([]Reply, 0, len(mockQuestions))
		for _, q := range mockQuestions {
			replies = append(replies, Text(q))
		}
		c := NewScriptedClient(replies...)
		c.Fallback = "I think you are thinking of: Albert Einstein"
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
