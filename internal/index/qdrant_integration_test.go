//go:build integration

package index

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal_rag/internal/embedding"
)

// Нужен Qdrant на QDRANT_HOST:6334 (docker run -p 6334:6334 qdrant/qdrant).
func TestQdrantIndex_AddSearch(t *testing.T) {
	host := os.Getenv("QDRANT_HOST")
	if host == "" {
		t.Skip("QDRANT_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	emb := embedding.NewLocalEmbedder(64)
	collection := "legal_rag_it_" + uuid.NewString()[:8]
	idx, err := OpenQdrant(ctx, QdrantConfig{Host: host, Port: 6334}, collection, emb)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Health(ctx))

	texts := []string{
		"Art. 48 A aposentadoria por idade será devida ao segurado que completar 65 anos",
		"Art. 201 A previdência social será organizada sob a forma de regime geral",
	}
	vectors, err := emb.Embed(ctx, texts)
	require.NoError(t, err)

	entries := make([]Entry, len(texts))
	for i, text := range texts {
		entries[i] = Entry{
			ID:       uuid.NewString(),
			Text:     text,
			Vector:   vectors[i],
			Metadata: map[string]string{MetaSource: "/dataset/lei.pdf"},
		}
	}
	require.NoError(t, idx.Add(ctx, entries))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := idx.Search(ctx, "aposentadoria por idade 65 anos", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Text, "Art. 48")
	assert.Equal(t, "/dataset/lei.pdf", hits[0].Metadata[MetaSource])

	err = idx.Add(ctx, []Entry{{ID: uuid.NewString(), Text: "x", Vector: []float32{1, 2}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
