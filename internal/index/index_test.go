package index

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal_rag/internal/embedding"
)

func entriesFor(t *testing.T, e embedding.Embedder, texts ...string) []Entry {
	t.Helper()
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)

	entries := make([]Entry, len(texts))
	for i, text := range texts {
		entries[i] = Entry{
			ID:     "doc-" + strconv.Itoa(i),
			Text:   text,
			Vector: vectors[i],
			Metadata: map[string]string{
				MetaSource:     "/dataset/lei-" + strconv.Itoa(i) + ".pdf",
				MetaChunkIndex: strconv.Itoa(i),
			},
		}
	}
	return entries
}

func TestChromem_SearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	e := embedding.NewLocalEmbedder(384)
	idx, err := NewMemoryChromem("juridico", e)
	require.NoError(t, err)

	require.NoError(t, idx.Add(ctx, entriesFor(t, e,
		"Art. 48. A aposentadoria por idade será devida ao segurado",
		"Receita de bolo de chocolate",
		"Art. 5º Todos são iguais perante a lei",
	)))

	hits, err := idx.Search(ctx, "aposentadoria por idade", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "doc-0", hits[0].ID)
	assert.Contains(t, hits[0].Text, "Art. 48")
	assert.Equal(t, "/dataset/lei-0.pdf", hits[0].Metadata[MetaSource])
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}
}

func TestChromem_EmptyAndClamped(t *testing.T) {
	ctx := context.Background()
	e := embedding.NewLocalEmbedder(32)
	idx, err := NewMemoryChromem("juridico", e)
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "lei", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, idx.Add(ctx, entriesFor(t, e, "lei")))
	hits, err = idx.Search(ctx, "lei", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, idx.Health(ctx))
}

func TestChromem_RejectsWrongDimensions(t *testing.T) {
	idx, err := NewMemoryChromem("juridico", embedding.NewLocalEmbedder(32))
	require.NoError(t, err)

	err = idx.Add(context.Background(), []Entry{{ID: "x", Text: "lei", Vector: []float32{1, 0}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = idx.Add(context.Background(), []Entry{{ID: "y", Text: "lei"}})
	assert.Error(t, err)
}

func TestChromem_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := embedding.NewLocalEmbedder(64)

	idx, err := OpenChromem(dir, "juridico", e)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, entriesFor(t, e, "Art. 48 aposentadoria", "Art. 201 previdência")))
	require.NoError(t, idx.Close())

	reopened, err := OpenChromem(dir, "juridico", e)
	require.NoError(t, err)

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := reopened.Search(ctx, "aposentadoria", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-0", hits[0].ID)
}

func TestChromem_ConcurrentSearch(t *testing.T) {
	ctx := context.Background()
	e := embedding.NewLocalEmbedder(64)
	idx, err := NewMemoryChromem("juridico", e)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, entriesFor(t, e, "lei um", "lei dois", "lei três")))

	first, err := idx.Search(ctx, "lei dois", 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := idx.Search(ctx, "lei dois", 3)
			assert.NoError(t, err)
			assert.Equal(t, first[0].ID, hits[0].ID)
		}()
	}
	wg.Wait()
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()

	m, err := LoadManifest(dir, "juridico")
	require.NoError(t, err)
	_, ok := m.Last()
	assert.False(t, ok)
	assert.NoError(t, m.CheckModel("local-hash", 384))

	gen := Generation{
		ID:             "gen-1",
		EmbeddingModel: "local-hash",
		Dimensions:     384,
		Chunks:         12,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Files:          []FileInfo{{Path: "/dataset/lei.pdf", Size: 1024, Chunks: 12}},
	}
	require.NoError(t, m.Append(gen))
	assert.FileExists(t, filepath.Join(dir, ManifestFile))

	loaded, err := LoadManifest(dir, "juridico")
	require.NoError(t, err)
	last, ok := loaded.Last()
	require.True(t, ok)
	assert.Equal(t, gen, last)

	assert.NoError(t, loaded.CheckModel("local-hash", 384))
	assert.ErrorIs(t, loaded.CheckModel("text-embedding-3-small", 1536), ErrDimensionMismatch)
}

func TestManifest_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{"), 0o644))

	_, err := LoadManifest(dir, "juridico")
	assert.Error(t, err)
}
