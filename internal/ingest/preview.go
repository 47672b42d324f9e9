package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"legal_rag/internal/index"
)

const previewLength = 200

// Searcher поиск по векторному индексу
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// Preview печатает k лучших совпадений для query, по 200 символов на каждое
func Preview(ctx context.Context, w io.Writer, s Searcher, query string, k int) error {
	hits, err := s.Search(ctx, query, k)
	if err != nil {
		return fmt.Errorf("preview search: %w", err)
	}

	fmt.Fprintf(w, "Top %d results for %q:\n", k, query)
	if len(hits) == 0 {
		fmt.Fprintln(w, "  (no results)")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(w, "\n%d. %s (page %s, similarity %.3f)\n",
			i+1, h.Metadata[index.MetaSource], h.Metadata[index.MetaPage], h.Similarity)
		if section := h.Metadata[index.MetaSection]; section != "" {
			fmt.Fprintf(w, "   [%s, %s]\n", section, h.Metadata[index.MetaChunkMethod])
		}
		fmt.Fprintf(w, "   %s\n", previewText(h.Text))
	}
	return nil
}

func previewText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return text
}
