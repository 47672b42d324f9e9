// Package ingest читает PDF из каталога датасета, режет на чанки,
// векторизует и пишет в векторный индекс.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"legal_rag/internal/chunker"
	"legal_rag/internal/embedding"
	"legal_rag/internal/index"
	"legal_rag/internal/pdftext"
)

// Этапы для IngestionItemError
const (
	StageExtract = "extract"
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StageWrite   = "write"
)

// IngestionItemError ошибка одного файла, остальные файлы продолжают обрабатываться
type IngestionItemError struct {
	Path  string
	Stage string
	Err   error
}

func (e *IngestionItemError) Error() string {
	return fmt.Sprintf("ingest %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *IngestionItemError) Unwrap() error { return e.Err }

// Result содержит статистику прогона
type Result struct {
	Generation  string
	TotalFiles  int
	Indexed     int
	TotalChunks int
	Failed      []*IngestionItemError
	Duration    time.Duration
}

// Writer запись в векторный индекс
type Writer interface {
	Add(ctx context.Context, entries []index.Entry) error
}

// ExtractFunc читает страницы одного PDF
type ExtractFunc func(path string) (pdftext.Document, error)

// Pipeline собирает индекс из PDF
type Pipeline struct {
	chunker  chunker.Chunker
	embedder embedding.Embedder
	index    Writer
	manifest *index.Manifest
	extract  ExtractFunc
	workers  int
	logger   *slog.Logger
}

// Option настраивает Pipeline
type Option func(*Pipeline)

// WithWorkers задаёт число параллельных извлечений текста
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithManifest включает запись поколения в manifest
func WithManifest(m *index.Manifest) Option {
	return func(p *Pipeline) { p.manifest = m }
}

// WithExtractor подменяет извлечение текста
func WithExtractor(fn ExtractFunc) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.extract = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPipeline(c chunker.Chunker, e embedding.Embedder, w Writer, opts ...Option) *Pipeline {
	p := &Pipeline{
		chunker:  c,
		embedder: e,
		index:    w,
		extract:  pdftext.ExtractFile,
		workers:  4,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type extracted struct {
	doc  pdftext.Document
	info os.FileInfo
	err  error
}

// Run индексирует все PDF под root. Каждый запуск добавляет новое поколение,
// дубликаты от прошлых запусков не удаляются.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	files, err := Discover(root)
	if err != nil {
		return nil, err
	}

	result := &Result{Generation: uuid.NewString(), TotalFiles: len(files)}
	log := p.logger.With("generation", result.Generation)
	log.Info("Starting ingestion", "root", root, "files", len(files), "chunker", p.chunker.Name(),
		"embedding_model", p.embedder.Model())

	if p.manifest != nil {
		if err := p.manifest.CheckModel(p.embedder.Model(), p.embedder.Dimensions()); err != nil {
			log.Warn("Embedding model differs from the existing index", "error", err)
		}
	}

	// Извлечение параллельно, запись в индекс строго последовательно
	docs := make([]extracted, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i] = p.extractOne(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var manifestFiles []index.FileInfo
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, itemErr := p.indexDocument(ctx, result.Generation, path, docs[i])
		if itemErr != nil {
			if errors.Is(itemErr, context.Canceled) || errors.Is(itemErr, context.DeadlineExceeded) {
				return nil, itemErr
			}
			log.Warn("Failed to ingest file", "path", path, "stage", itemErr.Stage, "error", itemErr.Err)
			result.Failed = append(result.Failed, itemErr)
			continue
		}

		result.Indexed++
		result.TotalChunks += n
		log.Info("Indexed file", "path", path, "pages", len(docs[i].doc.Pages), "chunks", n)

		fi := index.FileInfo{Path: path, Chunks: n}
		if docs[i].info != nil {
			fi.LastModified = docs[i].info.ModTime().UTC()
			fi.Size = docs[i].info.Size()
		}
		manifestFiles = append(manifestFiles, fi)
	}

	if p.manifest != nil && result.Indexed > 0 {
		err := p.manifest.Append(index.Generation{
			ID:             result.Generation,
			EmbeddingModel: p.embedder.Model(),
			Dimensions:     p.embedder.Dimensions(),
			Files:          manifestFiles,
			Chunks:         result.TotalChunks,
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("save manifest: %w", err)
		}
	}

	result.Duration = time.Since(start)
	log.Info("Ingestion complete",
		"indexed", result.Indexed,
		"failed", len(result.Failed),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}

func (p *Pipeline) extractOne(path string) extracted {
	info, _ := os.Stat(path)
	doc, err := p.extract(path)
	return extracted{doc: doc, info: info, err: err}
}

// indexDocument режет, векторизует и пишет один документ
func (p *Pipeline) indexDocument(ctx context.Context, generation, path string, ex extracted) (int, *IngestionItemError) {
	fail := func(stage string, err error) (int, *IngestionItemError) {
		return 0, &IngestionItemError{Path: path, Stage: stage, Err: err}
	}

	if ex.err != nil {
		return fail(StageExtract, ex.err)
	}

	chunks, err := p.chunker.Chunk(ex.doc.Text(), path)
	if err != nil {
		return fail(StageChunk, err)
	}
	if len(chunks) == 0 {
		return fail(StageChunk, pdftext.ErrNoText)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fail(StageEmbed, err)
	}
	if len(vectors) != len(chunks) {
		return fail(StageEmbed, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	base := provenance(path)
	entries := make([]index.Entry, len(chunks))
	for i, ch := range chunks {
		meta := make(map[string]string, len(base)+5)
		for k, v := range base {
			meta[k] = v
		}
		meta[index.MetaPage] = strconv.Itoa(ex.doc.PageAt(ch.Offset))
		meta[index.MetaChunkIndex] = strconv.Itoa(i)
		meta[index.MetaGeneration] = generation
		meta[index.MetaSection] = ch.Section
		meta[index.MetaChunkMethod] = ch.Metadata["method"]
		if meta[index.MetaChunkMethod] == "" {
			meta[index.MetaChunkMethod] = p.chunker.Name()
		}

		entries[i] = index.Entry{
			ID:       ch.ID,
			Text:     ch.Text,
			Vector:   vectors[i],
			Metadata: meta,
		}
	}

	if err := p.index.Add(ctx, entries); err != nil {
		return fail(StageWrite, err)
	}
	return len(entries), nil
}
