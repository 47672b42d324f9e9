package pdftext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal_rag/internal/pdftext/pdftest"
)

func TestDocumentTextAndPageAt(t *testing.T) {
	doc := NewDocument("/dataset/lei.pdf", []Page{
		{Number: 1, Text: "abc"},
		{Number: 3, Text: "defgh"},
		{Number: 4, Text: "ij"},
	})

	assert.Equal(t, "abc\ndefgh\nij", doc.Text())

	tests := []struct {
		offset int
		page   int
	}{
		{0, 1},
		{2, 1},
		{3, 1}, // separator belongs to the previous page
		{4, 3},
		{9, 3},
		{10, 4},
		{100, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.page, doc.PageAt(tt.offset), "offset %d", tt.offset)
	}
}

func TestPageAtWithoutIndex(t *testing.T) {
	doc := Document{Pages: []Page{{Number: 1, Text: "ab"}, {Number: 2, Text: "cd"}}}
	assert.Equal(t, 2, doc.PageAt(3))
	assert.Equal(t, 0, Document{}.PageAt(5))
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := ExtractBytes([]byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%%EOF garbage"), 0o644))

	_, err := ExtractFile(path)
	assert.Error(t, err)
}

func TestExtractPages(t *testing.T) {
	pages, err := ExtractBytes(pdftest.Build(
		"Art. 48 A aposentadoria por idade sera devida ao segurado",
		"",
		"Art. 49 A aposentadoria por idade sera devida",
	))
	require.NoError(t, err)
	require.Len(t, pages, 2, "blank page is dropped")

	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, pages[0].Text, "Art. 48")
	assert.Equal(t, 3, pages[1].Number)
	assert.Contains(t, pages[1].Text, "Art. 49")
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lei.pdf")
	require.NoError(t, pdftest.WriteFile(path, "Primeira pagina", "Segunda pagina"))

	doc, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	require.Len(t, doc.Pages, 2)
	assert.Contains(t, doc.Text(), "Primeira")
	assert.Contains(t, doc.Text(), "Segunda")
}

func TestExtractNoText(t *testing.T) {
	_, err := ExtractBytes(pdftest.Build("", "  "))
	assert.ErrorIs(t, err, ErrNoText)
}
