package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/insight-gateway/internal/config"
)

func chatCompletionBody(content string) string {
	body := map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"logprobs":      nil,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
					"refusal": nil,
				},
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     12,
			"completion_tokens": 8,
			"total_tokens":      20,
		},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestOpenAIComplete(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		require.Len(t, req.Messages[0].Content, 1)
		assert.Equal(t, "text", req.Messages[0].Content[0].Type)
		assert.Equal(t, "say hi", req.Messages[0].Content[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody(`{"insights":["hi"]}`)))
	}))
	defer server.Close()

	provider, err := NewOpenAI(config.LLMConfig{
		Provider: "openai",
		APIKey:   "sk-test",
		Endpoint: server.URL + "/",
		Model:    "gpt-4o-mini",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())

	resp, err := provider.Complete(context.Background(), "say hi", WithJSONOutput())
	require.NoError(t, err)
	assert.Equal(t, `{"insights":["hi"]}`, resp.Content)
	assert.Equal(t, int64(20), resp.Usage.TotalTokens)
	assert.Equal(t, 1, calls)
}

func TestOpenAISingleAttemptOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, err := NewOpenAI(config.LLMConfig{
		Provider: "openai",
		APIKey:   "sk-test",
		Endpoint: server.URL + "/",
		Model:    "gpt-4o-mini",
	})
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), "say hi")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestOpenAIEmptyChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody("")))
	}))
	defer server.Close()

	provider, err := NewOpenAI(config.LLMConfig{Provider: "openai", APIKey: "k", Endpoint: server.URL + "/", Model: "m"})
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewRequiresKeys(t *testing.T) {
	tests := []config.LLMConfig{
		{Provider: "openai"},
		{Provider: "azure", APIKey: "k"},
		{Provider: "gemini"},
		{Provider: "mystery", APIKey: "k"},
	}
	for _, cfg := range tests {
		t.Run(cfg.Provider, func(t *testing.T) {
			p, err := New(context.Background(), cfg)
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestUnavailable(t *testing.T) {
	reason := errors.New("gemini api key is required")
	p := Unavailable{Reason: reason}

	resp, err := p.Complete(context.Background(), "prompt")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, reason)
	assert.Equal(t, "unavailable", p.Name())
}

func TestApplyOptions(t *testing.T) {
	got := applyOptions(Options{Model: "default", MaxTokens: 10}, nil)
	assert.False(t, got.JSONOutput)

	got = applyOptions(got, []Option{WithJSONOutput()})
	assert.Equal(t, "default", got.Model)
	assert.Equal(t, int64(10), got.MaxTokens)
	assert.True(t, got.JSONOutput)
}

func TestGeminiComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.0-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req struct {
			GenerationConfig struct {
				ResponseMIMEType string `json:"responseMimeType"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"{\"insights\":[\"a\"]}"}]}}],
			"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":5,"totalTokenCount":8}
		}`))
	}))
	defer server.Close()

	p, err := NewGemini(context.Background(), config.LLMConfig{
		Provider:  "gemini",
		APIKey:    "g-key",
		Endpoint:  server.URL,
		Model:     "gemini-2.0-flash",
		MaxTokens: 256,
	})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), "hello", WithJSONOutput())
	require.NoError(t, err)
	assert.Equal(t, `{"insights":["a"]}`, resp.Content)
	assert.Equal(t, int64(8), resp.Usage.TotalTokens)
	assert.Equal(t, "gemini", p.Name())
}
