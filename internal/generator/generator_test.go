package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal_rag/internal/config"
	"legal_rag/internal/embedding"
)

func TestCompatGenerator(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantText   string
		wantFinish string
		wantErr    error
		anyErr     bool
	}{
		{
			name:       "ok",
			status:     http.StatusOK,
			body:       `{"choices":[{"message":{"role":"assistant","content":"O Art. 48 exige 65 anos."},"finish_reason":"stop"}]}`,
			wantText:   "O Art. 48 exige 65 anos.",
			wantFinish: "stop",
		},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "missing message", status: http.StatusOK, body: `{"choices":[{}]}`},
		{name: "null content", status: http.StatusOK, body: `{"choices":[{"message":{"content":null}}]}`},
		{name: "unrelated object", status: http.StatusOK, body: `{"results":[{"outputText":"x"}]}`},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: ErrMalformedResponse},
		{name: "server error", status: http.StatusBadGateway, body: `upstream down`, anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got chatRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewCompatGenerator(srv.URL+"/v1/", "gemma2:2b", "secret", nil)
			c, err := g.Generate(context.Background(), "pergunta", Options{MaxTokens: 8192, Temperature: 0, TopP: 1})

			assert.Equal(t, "gemma2:2b", got.Model)
			assert.Equal(t, 8192, got.MaxTokens)
			require.Len(t, got.Messages, 1)
			assert.Equal(t, "pergunta", got.Messages[0].Content)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "502")
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, c.Text)
				assert.Equal(t, tt.wantFinish, c.FinishReason)
			}
		})
	}
}

func TestCompatGenerator_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewCompatGenerator(srv.URL, "m", "", nil).Generate(ctx, "p", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestOpenAIGenerator(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Resposta fundamentada."}}]
		}`))
	}))
	defer srv.Close()

	client, err := embedding.NewClient("sk-test", srv.URL)
	require.NoError(t, err)

	c, err := NewOpenAIGenerator(client, "").Generate(context.Background(), "prompt", Options{MaxTokens: 100, TopP: 1})
	require.NoError(t, err)

	assert.Equal(t, "Resposta fundamentada.", c.Text)
	assert.Equal(t, "stop", c.FinishReason)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 0, got["temperature"])
	assert.EqualValues(t, 100, got["max_completion_tokens"])
}

func TestOpenAIGenerator_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	client, err := embedding.NewClient("sk-test", srv.URL)
	require.NoError(t, err)

	_, err = NewOpenAIGenerator(client, "gpt-4o-mini").Generate(context.Background(), "prompt", Options{})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	g, err := New(config.LLM{Provider: "compat", URL: "http://localhost:11434/v1", Model: "gemma2:2b"})
	require.NoError(t, err)
	assert.IsType(t, &CompatGenerator{}, g)

	g, err = New(config.LLM{Provider: "openai", Key: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	_, err = New(config.LLM{Provider: "openai"})
	assert.Error(t, err)

	_, err = New(config.LLM{Provider: "bedrock"})
	assert.Error(t, err)
}
