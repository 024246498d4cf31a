package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/twentyq/internal/domain"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClientComplete(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, "Is your character male?", &seen)

	c := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model", Timeout: time.Second})
	out, err := c.Complete(context.Background(), Request{
		System:      "rules",
		Messages:    []domain.Message{domain.UserMessage("start"), domain.AssistantMessage("Q?"), domain.UserMessage("Yes")},
		Temperature: 0.7,
		MaxTokens:   40,
	})
	require.NoError(t, err)
	assert.Equal(t, "Is your character male?", out)

	assert.Equal(t, "test-model", seen.Model)
	assert.Equal(t, 40, seen.MaxTokens)
	assert.InDelta(t, 0.7, seen.Temperature, 1e-6)
	require.Len(t, seen.Messages, 4)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "rules", seen.Messages[0].Content)
	assert.Equal(t, "assistant", seen.Messages[2].Role)
	assert.Equal(t, "user", seen.Messages[3].Role)
}

func TestOpenAIClientEmptyResponse(t *testing.T) {
	srv := completionServer(t, "   ", nil)
	c := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Timeout: time.Second})

	_, err := c.Complete(context.Background(), Request{Messages: []domain.Message{domain.UserMessage("hi")}})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestOpenAIClientProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Timeout: time.Second})
	_, err := c.Complete(context.Background(), Request{Messages: []domain.Message{domain.UserMessage("hi")}})
	assert.ErrorIs(t, err, ErrGeneration)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestOpenAIClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Timeout: 50 * time.Millisecond})
	_, err := c.Complete(context.Background(), Request{Messages: []domain.Message{domain.UserMessage("hi")}})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestNewSelectsProvider(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenAI})
	assert.Error(t, err, "api key is required")

	c, err := New(Config{Provider: ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = New(Config{Provider: "MOCK"})
	require.NoError(t, err)
	assert.IsType(t, &ScriptedClient{}, c)

	_, err = New(Config{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
