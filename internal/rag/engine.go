// Package rag отвечает на вопросы по проиндексированным юридическим документам:
// находит top-k чанков, просит генератор ответить только по ним
// и возвращает ответ с источниками.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"legal_rag/internal/generator"
	"legal_rag/internal/index"
)

const (
	DefaultTopK       = 3
	DefaultMaxTokens  = 8192
	ExcerptLength     = 300
	defaultRetrieval  = 15 * time.Second
	defaultGeneration = 60 * time.Second
)

// Searcher поиск по векторному индексу
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// Source один чанк, на котором основан ответ
type Source struct {
	Source         string `json:"source"`
	ContentExcerpt string `json:"content_excerpt"`
}

// Answer результат одного вопроса
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// RetrievalResult либо NoMatches, либо Matches
type RetrievalResult interface {
	isRetrievalResult()
}

// NoMatches индекс ничего не вернул
type NoMatches struct{}

// Matches совпадения по рангу, не пустой
type Matches []index.Hit

func (NoMatches) isRetrievalResult() {}
func (Matches) isRetrievalResult()   {}

// Options настройки engine, нулевые значения берутся по умолчанию
type Options struct {
	TopK              int
	Generation        generator.Options
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
}

// DefaultOptions k=3, temperature 0, top-p 1, 8192 токенов ответа
func DefaultOptions() Options {
	return Options{
		TopK: DefaultTopK,
		Generation: generator.Options{
			MaxTokens:   DefaultMaxTokens,
			Temperature: 0,
			TopP:        1,
		},
		RetrievalTimeout:  defaultRetrieval,
		GenerationTimeout: defaultGeneration,
	}
}

// Engine не хранит состояния запроса, безопасен для параллельного использования
type Engine struct {
	index     Searcher
	generator generator.Generator
	opts      Options
	logger    *slog.Logger
}

func NewEngine(idx Searcher, gen generator.Generator, opts Options, logger *slog.Logger) (*Engine, error) {
	if idx == nil {
		return nil, errors.New("rag: index is required")
	}
	if gen == nil {
		return nil, errors.New("rag: generator is required")
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = defaultRetrieval
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = defaultGeneration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{index: idx, generator: gen, opts: opts, logger: logger}, nil
}

// Answer возвращает ответ или *QueryError
func (e *Engine) Answer(ctx context.Context, question string) (answer Answer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("query panicked", "panic", rec)
			answer, err = Answer{}, newQueryError(KindInternal, fmt.Errorf("panic: %v", rec))
		}
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, newQueryError(KindInvalidInput, errors.New("question is empty"))
	}

	start := time.Now()
	log := e.logger.With("question_len", len(question))

	log.Debug("retrieving", "k", e.opts.TopK)
	result, err := e.Retrieve(ctx, question)
	if err != nil {
		log.Warn("retrieval failed", "error", err)
		return Answer{}, err
	}

	var hits Matches
	switch r := result.(type) {
	case NoMatches:
		log.Debug("empty result")
		return Answer{Text: NoDocumentsAnswer, Sources: []Source{}}, nil
	case Matches:
		hits = r
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	prompt := BuildPrompt(question, BuildContext(texts))
	log.Debug("context built", "chunks", len(hits), "prompt_len", len(prompt))

	genCtx, cancel := context.WithTimeout(ctx, e.opts.GenerationTimeout)
	defer cancel()

	log.Debug("generating")
	completion, err := e.generator.Generate(genCtx, prompt, e.opts.Generation)
	if err != nil {
		log.Warn("generation failed", "error", err)
		return Answer{}, newQueryError(KindGeneration, err)
	}

	text := strings.TrimSpace(completion.Text)
	if text == "" {
		log.Warn("generator returned no text", "finish_reason", completion.FinishReason)
		text = NoAnswerPlaceholder
	}

	log.Info("answered", "sources", len(hits), "duration", time.Since(start))
	return Answer{Text: text, Sources: buildSources(hits)}, nil
}

// Retrieve ищет похожие чанки с таймаутом поиска
func (e *Engine) Retrieve(ctx context.Context, question string) (RetrievalResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RetrievalTimeout)
	defer cancel()

	hits, err := e.index.Search(ctx, question, e.opts.TopK)
	if err != nil {
		return nil, newQueryError(KindRetrieval, err)
	}
	if len(hits) == 0 {
		return NoMatches{}, nil
	}
	if len(hits) > e.opts.TopK {
		hits = hits[:e.opts.TopK]
	}
	return Matches(hits), nil
}

func buildSources(hits []index.Hit) []Source {
	sources := make([]Source, len(hits))
	for i, h := range hits {
		src := h.Metadata[index.MetaSource]
		if src == "" {
			src = UnknownSource
		}
		sources[i] = Source{
			Source:         src,
			ContentExcerpt: Excerpt(h.Text, ExcerptLength),
		}
	}
	return sources
}
