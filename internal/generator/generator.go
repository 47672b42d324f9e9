// Package generator отправляет промпт в языковую модель и возвращает текст.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"legal_rag/internal/config"
	"legal_rag/internal/embedding"
)

// ErrMalformedResponse ответ провайдера не удалось разобрать
var ErrMalformedResponse = errors.New("malformed generator response")

// Options параметры сэмплирования для одного вызова
type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Completion разобранный ответ провайдера. Text пустой, если модель ничего не вернула
type Completion struct {
	Text         string
	FinishReason string
}

// Generator генерирует текст по промпту
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (Completion, error)
}

// New выбирает генератор по cfg.Provider
func New(cfg config.LLM) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI:
		client, err := embedding.NewClient(cfg.Key, "")
		if err != nil {
			return nil, err
		}
		return NewOpenAIGenerator(client, cfg.Model), nil
	case config.ProviderCompat:
		return NewCompatGenerator(cfg.URL, cfg.Model, cfg.Key, nil), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
