package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompleter_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[0].Content)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[
			{"index":0,"message":{"role":"assistant","content":"  hi there \n"},"finish_reason":"stop"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAICompleter(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini", MaxTokens: 64})
	require.NoError(t, err)
	got, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestOpenAICompleter_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAICompleter(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrCompletion)
}

func TestAnthropicCompleter_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-haiku-latest", req.Model)
		assert.Equal(t, 1024, req.MaxTokens)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"{\"decision\":"},{"type":"text","text":"\"Covered\"}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":5}}`))
	}))
	defer srv.Close()

	c, err := NewAnthropicCompleter(AnthropicConfig{APIKey: "sk-ant", BaseURL: srv.URL + "/", Model: "claude-3-5-haiku-latest"})
	require.NoError(t, err)
	got, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"decision":"Covered"}`, got)
}

func TestNew(t *testing.T) {
	t.Setenv("VAANI_TEST_LLM_KEY", "secret")

	c, err := New(config.LLMConfig{Provider: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKeyEnv: "VAANI_TEST_LLM_KEY"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAICompleter{}, c)

	c, err = New(config.LLMConfig{Provider: "Anthropic", Model: "claude-3-5-haiku-latest", APIKeyEnv: "VAANI_TEST_LLM_KEY"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicCompleter{}, c)

	_, err = New(config.LLMConfig{Provider: "openai", Model: "m", APIKeyEnv: "VAANI_TEST_LLM_MISSING"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(config.LLMConfig{Provider: "gemini"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
