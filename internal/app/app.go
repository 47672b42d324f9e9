// Package app собирает из конфига embedder, векторный индекс,
// генератор и query engine для всех команд.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"legal_rag/internal/chunker"
	"legal_rag/internal/config"
	"legal_rag/internal/embedding"
	"legal_rag/internal/generator"
	"legal_rag/internal/index"
	"legal_rag/internal/ingest"
	"legal_rag/internal/rag"
	"legal_rag/internal/server"
)

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	embedder embedding.Embedder
	index    index.VectorIndex
	manifest *index.Manifest

	// генератор нужен только для ответов, ingest обходится без него
	engineOnce sync.Once
	engine     *rag.Engine
	engineErr  error
}

// New открывает embedder, индекс и manifest; App.Close освобождает их.
// Генератор и engine создаются при первом вызове Engine.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger}

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	a.embedder = emb

	if strings.EqualFold(cfg.Embedding.Mode, config.EmbeddingOllama) {
		if err := ensureOllamaModel(ctx, cfg.Embedding.OllamaURL, cfg.Embedding.OllamaModel, logger); err != nil {
			return nil, fmt.Errorf("ollama model check failed: %w", err)
		}
	}
	// размерность должна быть известна до открытия индекса
	if p, ok := emb.(embedding.DimensionDetector); ok {
		dims, err := p.DetectDimensions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to detect embedding dimensions: %w", err)
		}
		if cfg.Embedding.Dimensions != dims {
			logger.Info("Embedding dimensions detected", "model", emb.Model(), "dimensions", dims,
				"configured", cfg.Embedding.Dimensions)
		}
	}

	a.index, err = openIndex(ctx, cfg, emb)
	if err != nil {
		return nil, err
	}

	a.manifest, err = index.LoadManifest(cfg.PersistDir, cfg.CollectionName)
	if err != nil {
		a.index.Close()
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	if err := a.manifest.CheckModel(emb.Model(), emb.Dimensions()); err != nil {
		logger.Warn("Index was built with a different embedding model", "error", err)
	}

	n, _ := a.index.Count(ctx)
	logger.Info("Application initialized",
		"backend", cfg.Index.Backend,
		"collection", cfg.CollectionName,
		"documents", n,
		"embedding_model", emb.Model(),
		"dimensions", emb.Dimensions(),
	)
	return a, nil
}

// Engine создаёт генератор и query engine при первом вызове
func (a *App) Engine() (*rag.Engine, error) {
	a.engineOnce.Do(func() {
		gen, err := generator.New(a.cfg.LlmMain)
		if err != nil {
			a.engineErr = fmt.Errorf("failed to create generator: %w", err)
			return
		}

		opts := rag.DefaultOptions()
		opts.TopK = a.cfg.TopK
		opts.RetrievalTimeout = a.cfg.RetrievalTimeout
		opts.GenerationTimeout = a.cfg.GenerationTimeout
		opts.Generation = generator.Options{
			MaxTokens:   a.cfg.LlmMain.MaxTokens,
			Temperature: a.cfg.LlmMain.Temperature,
			TopP:        a.cfg.LlmMain.TopP,
		}
		a.engine, a.engineErr = rag.NewEngine(a.index, gen, opts, a.logger)
		if a.engineErr == nil {
			a.logger.Info("Query engine ready", "llm_provider", a.cfg.LlmMain.Provider, "model", a.cfg.LlmMain.Model)
		}
	})
	return a.engine, a.engineErr
}

func openIndex(ctx context.Context, cfg *config.Config, emb embedding.Embedder) (index.VectorIndex, error) {
	switch strings.ToLower(cfg.Index.Backend) {
	case config.BackendQdrant:
		idx, err := index.OpenQdrant(ctx, index.QdrantConfig{
			Host:   cfg.Index.QdrantHost,
			Port:   cfg.Index.QdrantPort,
			APIKey: cfg.Index.QdrantAPIKey,
			UseTLS: cfg.Index.QdrantTLS,
		}, cfg.CollectionName, emb)
		if err != nil {
			return nil, fmt.Errorf("failed to open qdrant index: %w", err)
		}
		return idx, nil
	default:
		idx, err := index.OpenChromem(cfg.PersistDir, cfg.CollectionName, emb)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database: %w", err)
		}
		return idx, nil
	}
}

func (a *App) Index() index.VectorIndex { return a.index }

// Pipeline собирает ingestion pipeline из настроек chunker'а
func (a *App) Pipeline() (*ingest.Pipeline, error) {
	c, err := chunker.NewFactory(chunker.Config{
		MaxChunkSize: a.cfg.ChunkSize,
		Overlap:      a.cfg.ChunkOverlap,
	}).GetChunker(a.cfg.ChunkMethod)
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(c, a.embedder, a.index,
		ingest.WithWorkers(a.cfg.IngestWorkers),
		ingest.WithManifest(a.manifest),
		ingest.WithLogger(a.logger),
	), nil
}

// Handler возвращает HTTP API поверх engine и индекса
func (a *App) Handler() (http.Handler, error) {
	engine, err := a.Engine()
	if err != nil {
		return nil, err
	}
	return server.NewHandler(engine, a.index, a.logger), nil
}

func (a *App) Close() error {
	if a.index == nil {
		return nil
	}
	return a.index.Close()
}

// ListenAddr адрес для логов: ":8000" превращается в 127.0.0.1:8000
func ListenAddr(addr string) string {
	if addr == "" {
		return "localhost"
	}
	if addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}

// ensureOllamaModel проверяет, что Ollama запущена, и скачивает модель, если её нет
func ensureOllamaModel(ctx context.Context, baseURL, model string, logger *slog.Logger) error {
	baseURL = strings.TrimRight(baseURL, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s returned status %d", baseURL, resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode ollama tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			logger.Info("Ollama model is available", "model", model)
			return nil
		}
	}

	logger.Info("Ollama model not found, pulling", "model", model)
	body, _ := json.Marshal(map[string]any{"name": model, "stream": false})
	pull, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	pull.Header.Set("Content-Type", "application/json")
	pullResp, err := http.DefaultClient.Do(pull)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer pullResp.Body.Close()
	if pullResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(pullResp.Body, 4096))
		return fmt.Errorf("failed to pull model %s: status %d: %s", model, pullResp.StatusCode, msg)
	}
	logger.Info("Ollama model pulled", "model", model)
	return nil
}
