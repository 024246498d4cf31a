package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ashureev/twentyq/internal/domain"
)

const (
	// DefaultBaseURL is Anthropic's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.anthropic.com/v1/"
	// DefaultModel is the model the game was tuned against.
	DefaultModel = "claude-opus-4-5-20251101"
	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 30 * time.Second
)

// Config holds the provider settings.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// OpenAIClient implements Client over any OpenAI-compatible chat completions API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for cfg, filling unset fields with defaults.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	openaiConfig.HTTPClient = &http.Client{}

	slog.Info("LLM client created", "base_url", cfg.BaseURL, "model", cfg.Model, "timeout", cfg.Timeout)
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(openaiConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// Complete sends req and returns the text of the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	duration := time.Since(start)
	requestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	if err != nil {
		if isTimeout(ctx, err) {
			requestsTotal.WithLabelValues(c.model, "timeout").Inc()
			slog.Warn("LLM request timed out", "model", c.model, "duration", duration)
			return "", fmt.Errorf("%w after %v: %v", ErrTimeout, duration, err)
		}
		requestsTotal.WithLabelValues(c.model, "error").Inc()
		slog.Error("LLM request failed", "model", c.model, "duration", duration, "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		requestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		slog.Warn("LLM returned an empty response", "model", c.model, "duration", duration)
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}

	requestsTotal.WithLabelValues(c.model, "success").Inc()
	promptTokens.WithLabelValues(c.model).Observe(float64(resp.Usage.PromptTokens))
	completionTokens.WithLabelValues(c.model).Observe(float64(resp.Usage.CompletionTokens))
	slog.Debug("LLM response received",
		"model", c.model,
		"duration", duration,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
