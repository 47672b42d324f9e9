package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"golang.org/x/time/rate"
)

const (
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultBatchSize с запасом ниже лимита API в 2048 входов
	DefaultBatchSize = 100
)

var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIOptions настройки OpenAIEmbedder, нулевые значения по умолчанию
type OpenAIOptions struct {
	Model             string
	BatchSize         int
	RequestsPerSecond float64
}

// OpenAIEmbedder считает эмбеддинги через OpenAI embeddings API.
// Запросы идут батчами с клиентским rate limit, на HTTP 429 повтор с exponential backoff.
type OpenAIEmbedder struct {
	client    *Client
	model     string
	batchSize int
	limiter   *rate.Limiter
}

func NewOpenAIEmbedder(client *Client, opts OpenAIOptions) *OpenAIEmbedder {
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &OpenAIEmbedder{
		client:    client,
		model:     opts.Model,
		batchSize: opts.BatchSize,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Dimensions() int {
	if d, ok := openAIDimensions[e.model]; ok {
		return d
	}
	return 1536
}

// Embed по вектору на каждый текст, батчами
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		vectors, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("%w: got %d vectors for %d texts",
				ErrEmptyEmbedding, len(resp.Data), len(texts)))
		}

		// порядок в ответе не гарантирован, смотрим на Index
		vectors = make([][]float32, len(texts))
		for _, data := range resp.Data {
			idx := int(data.Index)
			if idx < 0 || idx >= len(texts) {
				return backoff.Permanent(fmt.Errorf("embedding index %d out of range", idx))
			}
			vectors[idx] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

// isRateLimitError проверяет, что ошибка это HTTP 429
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
