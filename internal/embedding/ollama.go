package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/philippgille/chromem-go"
)

const dimensionsText = "dimensions check"

// OllamaEmbedder вызывает локальный Ollama через embedding func из chromem
type OllamaEmbedder struct {
	fn    chromem.EmbeddingFunc
	model string
	dims  atomic.Int64
}

// NewOllamaEmbedder создаёт embedder для model на baseURL (например http://localhost:11434).
// dims используется, пока DetectDimensions не узнал настоящую размерность модели.
func NewOllamaEmbedder(model, baseURL string, dims int) *OllamaEmbedder {
	apiURL := strings.TrimRight(baseURL, "/") + "/api"
	e := &OllamaEmbedder{
		fn:    chromem.NewEmbeddingFuncOllama(model, apiURL),
		model: model,
	}
	e.dims.Store(int64(dims))
	return e
}

func (e *OllamaEmbedder) Model() string { return e.model }

func (e *OllamaEmbedder) Dimensions() int { return int(e.dims.Load()) }

// DetectDimensions векторизует тестовый текст и запоминает размерность модели
func (e *OllamaEmbedder) DetectDimensions(ctx context.Context) (int, error) {
	v, err := e.fn(ctx, dimensionsText)
	if err != nil {
		return 0, fmt.Errorf("ollama dimensions: %w", err)
	}
	if len(v) == 0 {
		return 0, ErrEmptyEmbedding
	}
	e.dims.Store(int64(len(v)))
	return len(v), nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.fn(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("ollama embed %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
