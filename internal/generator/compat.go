package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CompatGenerator ходит в любой OpenAI-совместимый /chat/completions
// по HTTP (Ollama, vLLM, LM Studio)
type CompatGenerator struct {
	url    string
	model  string
	key    string
	client *http.Client
}

var _ Generator = (*CompatGenerator)(nil)

// NewCompatGenerator создаёт генератор для baseURL (например http://localhost:11434/v1).
// nil client означает http.DefaultClient.
func NewCompatGenerator(baseURL, model, key string, client *http.Client) *CompatGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &CompatGenerator{
		url:    strings.TrimRight(baseURL, "/") + "/chat/completions",
		model:  model,
		key:    key,
		client: client,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
}

// chatResponse только читаемые поля, любое может отсутствовать
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (g *CompatGenerator) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.key != "" {
		req.Header.Set("Authorization", "Bearer "+g.key)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Completion{}, fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Completion{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return decoded.completion(), nil
}

// completion: если какого-то поля нет, возвращаем пустой Completion, а не ошибку
func (r chatResponse) completion() Completion {
	if len(r.Choices) == 0 {
		return Completion{}
	}
	choice := r.Choices[0]

	var c Completion
	if choice.Message != nil && choice.Message.Content != nil {
		c.Text = *choice.Message.Content
	}
	if choice.FinishReason != nil {
		c.FinishReason = *choice.FinishReason
	}
	return c
}
