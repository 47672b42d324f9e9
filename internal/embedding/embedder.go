package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"

	"legal_rag/internal/config"
)

// Embedder превращает тексты в векторы фиксированной размерности.
// Один вектор на текст, в порядке входа.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Model() string
}

var ErrEmptyEmbedding = errors.New("embedding provider returned no vector")

// DimensionDetector узнаёт размерность модели тестовым запросом
type DimensionDetector interface {
	DetectDimensions(ctx context.Context) (int, error)
}

// New выбирает embedder по cfg.Mode
func New(cfg config.Embedding) (Embedder, error) {
	switch strings.ToUpper(cfg.Mode) {
	case config.EmbeddingLocal:
		return NewLocalEmbedder(cfg.Dimensions), nil
	case config.EmbeddingOpenAI:
		client, err := NewClient(cfg.OpenAIKey, "")
		if err != nil {
			return nil, err
		}
		return NewOpenAIEmbedder(client, OpenAIOptions{
			Model:             cfg.OpenAIModel,
			BatchSize:         cfg.BatchSize,
			RequestsPerSecond: cfg.RequestsPerS,
		}), nil
	case config.EmbeddingOllama:
		return NewOllamaEmbedder(cfg.OllamaModel, cfg.OllamaURL, cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding mode %q", cfg.Mode)
	}
}

// EmbedOne векторизует один текст
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return vectors[0], nil
}

// AsEmbeddingFunc адаптер Embedder к сигнатуре chromem для одного текста
func AsEmbeddingFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return EmbedOne(ctx, e, text)
	}
}
