package chunker

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var legalWords = []string{
	"lei", "artigo", "aposentadoria", "idade", "segurado", "benefício",
	"contribuição", "previdência", "parágrafo", "inciso", "União",
}

// sampleText строит текст из слов без переносов строк
func sampleText(words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(legalWords[i%len(legalWords)])
	}
	return b.String()
}

func TestRecursiveChunker_SizeBound(t *testing.T) {
	c := NewRecursiveChunker(Config{MaxChunkSize: 1000, Overlap: 200})

	chunks, err := c.Chunk(sampleText(4000), "/data/lei.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 1000, "chunk %d too long", i)
		assert.NotEmpty(t, ch.Text)
		assert.Equal(t, "/data/lei.pdf", ch.Source)
		assert.NotEmpty(t, ch.ID)
	}
}

func TestRecursiveChunker_CountApproximatesStep(t *testing.T) {
	const size, overlap = 1000, 200
	c := NewRecursiveChunker(Config{MaxChunkSize: size, Overlap: overlap})

	text := sampleText(6000)
	chunks, err := c.Chunk(text, "doc.pdf")
	require.NoError(t, err)

	total := float64(utf8.RuneCountInString(text))
	covered := float64(len(chunks) * (size - overlap))
	assert.InDelta(t, 1.0, covered/total, 0.15,
		"chunks=%d total=%d", len(chunks), int(total))
}

func TestRecursiveChunker_OverlapKeepsBoundaryText(t *testing.T) {
	c := NewRecursiveChunker(Config{MaxChunkSize: 100, Overlap: 30})

	chunks, err := c.Chunk(sampleText(200), "doc.pdf")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1].Text)
		last := prevWords[len(prevWords)-1]
		assert.Contains(t, chunks[i].Text, last, "chunk %d should repeat the tail of chunk %d", i, i-1)
	}
}

func TestRecursiveChunker_PrefersParagraphs(t *testing.T) {
	c := NewRecursiveChunker(Config{MaxChunkSize: 60, Overlap: 10})

	text := "Art. 1º Esta lei dispõe sobre benefícios.\n\nArt. 2º A aposentadoria por idade é devida."
	chunks, err := c.Chunk(text, "doc.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Art. 1º Esta lei dispõe sobre benefícios.", chunks[0].Text)
	assert.Equal(t, "Art. 2º A aposentadoria por idade é devida.", chunks[1].Text)
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, utf8.RuneCountInString("Art. 1º Esta lei dispõe sobre benefícios.\n\n"), chunks[1].Offset)
}

func TestRecursiveChunker_LongWordFallsBackToCharacters(t *testing.T) {
	c := NewRecursiveChunker(Config{MaxChunkSize: 10, Overlap: 2})

	chunks, err := c.Chunk(strings.Repeat("x", 35), "doc.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 10)
	}
}

func TestRecursiveChunker_Empty(t *testing.T) {
	c := NewRecursiveChunker(Config{MaxChunkSize: 1000, Overlap: 200})

	chunks, err := c.Chunk("  \n\n  ", "doc.pdf")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestTextChunker_Windows(t *testing.T) {
	c := NewTextChunker(Config{MaxChunkSize: 10, Overlap: 4})

	chunks, err := c.Chunk("abcdefghijklmnopqrstuvwxyz", "doc.pdf")
	require.NoError(t, err)

	var texts []string
	for _, ch := range chunks {
		texts = append(texts, ch.Text)
	}
	assert.Equal(t, []string{"abcdefghij", "ghijklmnop", "mnopqrstuv", "stuvwxyz"}, texts)
	assert.Equal(t, 6, chunks[1].Offset)
	assert.Equal(t, "size", chunks[0].Metadata["method"])
}

func TestTextChunker_CountApproximatesStep(t *testing.T) {
	c := NewTextChunker(Config{MaxChunkSize: 1000, Overlap: 200})

	text := sampleText(5000)
	chunks, err := c.Chunk(text, "doc.pdf")
	require.NoError(t, err)

	total := utf8.RuneCountInString(text)
	want := int(math.Ceil(float64(total-200) / 800))
	assert.Equal(t, want, len(chunks))
}

func TestChunkIDsAreUnique(t *testing.T) {
	c := NewRecursiveChunker(Config{MaxChunkSize: 1000, Overlap: 200})

	first, err := c.Chunk("mesmo texto", "doc.pdf")
	require.NoError(t, err)
	second, err := c.Chunk("mesmo texto", "doc.pdf")
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestFactory(t *testing.T) {
	f := NewFactory(Config{MaxChunkSize: 1000, Overlap: 200})

	tests := []struct {
		method string
		want   string
	}{
		{"", "recursive"},
		{"Recursive", "recursive"},
		{"size", "size"},
		{"text", "size"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			c, err := f.GetChunker(tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
		})
	}

	_, err := f.GetChunker("markdown")
	assert.Error(t, err)

	_, err = NewFactory(Config{MaxChunkSize: 100, Overlap: 100}).GetChunker("")
	assert.ErrorIs(t, err, errBadConfig)
}
