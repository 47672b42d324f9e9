// Package index хранит векторы чанков и ищет ближайших соседей.
package index

import (
	"context"
	"errors"
)

// Ключи метаданных каждой записи
const (
	MetaSource     = "source"
	MetaFileName   = "file_name"
	MetaFolder     = "folder"
	MetaPage       = "page"
	MetaChunkIndex = "chunk_index"
	MetaGeneration = "generation"

	MetaSection     = "section"
	MetaChunkMethod = "method"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrIndexUnavailable  = errors.New("vector index unavailable")
)

// Entry вектор, текст и метаданные одной записи
type Entry struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// Hit результат поиска. Similarity косинусная, больше значит ближе
type Hit struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Similarity float32
}

// VectorIndex сохраняемая коллекция с поиском по сходству.
// Search возвращает не больше k совпадений по убыванию сходства
// и пустой срез для пустого индекса. Search можно вызывать параллельно.
type VectorIndex interface {
	Add(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, query string, k int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	Health(ctx context.Context) error
	Close() error
}
