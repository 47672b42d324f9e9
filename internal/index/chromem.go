package index

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/philippgille/chromem-go"

	"legal_rag/internal/embedding"
)

// ChromemIndex встроенный векторный индекс в каталоге на диске.
// Векторы считает pipeline, embedding func коллекции нужна только для запросов.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.Embedder
	name       string
}

// OpenChromem открывает или создаёт коллекцию name в dir
func OpenChromem(dir, name string, embedder embedding.Embedder) (*ChromemIndex, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create persist dir: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("%w: open chromem db %s: %v", ErrIndexUnavailable, dir, err)
	}

	return newChromem(db, name, embedder)
}

// NewMemoryChromem индекс в памяти для тестов и превью
func NewMemoryChromem(name string, embedder embedding.Embedder) (*ChromemIndex, error) {
	return newChromem(chromem.NewDB(), name, embedder)
}

func newChromem(db *chromem.DB, name string, embedder embedding.Embedder) (*ChromemIndex, error) {
	coll, err := db.GetOrCreateCollection(name, map[string]string{
		"embedding_model": embedder.Model(),
	}, embedding.AsEmbeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", name, err)
	}

	return &ChromemIndex{
		db:         db,
		collection: coll,
		embedder:   embedder,
		name:       name,
	}, nil
}

func (c *ChromemIndex) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	dims := c.embedder.Dimensions()
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %s has no vector", e.ID)
		}
		if dims > 0 && len(e.Vector) != dims {
			return fmt.Errorf("%w: entry %s has %d dimensions, expected %d",
				ErrDimensionMismatch, e.ID, len(e.Vector), dims)
		}
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Metadata:  e.Metadata,
			Embedding: e.Vector,
		}
	}

	if err := c.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (c *ChromemIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	// chromem не принимает nResults больше размера коллекции
	n := min(k, c.collection.Count())
	if n <= 0 {
		return []Hit{}, nil
	}

	results, err := c.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:         r.ID,
			Text:       r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	return hits, nil
}

func (c *ChromemIndex) Count(ctx context.Context) (int, error) {
	return c.collection.Count(), nil
}

func (c *ChromemIndex) Health(ctx context.Context) error {
	if c.db.GetCollection(c.name, nil) == nil {
		return fmt.Errorf("%w: collection %s not found", ErrIndexUnavailable, c.name)
	}
	return nil
}

// Close ничего не делает: chromem пишет документы на Add
func (c *ChromemIndex) Close() error {
	return nil
}
