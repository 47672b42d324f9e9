package chunker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSeparators от крупных границ к мелким: абзац, строка, слово, символ
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker режет текст по самой крупной границе, которая есть в тексте,
// и рекурсивно дробит куски, которые всё ещё больше MaxChunkSize.
// Соседние куски склеиваются до MaxChunkSize, хвост предыдущего чанка
// (не больше Overlap символов) переносится в следующий.
type RecursiveChunker struct {
	config     Config
	separators []string
}

// NewRecursiveChunker создаёт recursive chunker
func NewRecursiveChunker(config Config) *RecursiveChunker {
	return &RecursiveChunker{config: config, separators: DefaultSeparators}
}

func (r *RecursiveChunker) Name() string {
	return "recursive"
}

func (r *RecursiveChunker) Chunk(content, source string) ([]Chunk, error) {
	if err := validate(r.config); err != nil {
		return nil, err
	}

	texts := r.split(content, r.separators)

	chunks := make([]Chunk, 0, len(texts))
	cursor := 0
	for i, text := range texts {
		chunk := CreateChunk(text, source, sectionName(i+1), map[string]string{
			"chunk_num": strconv.Itoa(i + 1),
			"method":    "recursive",
		})

		offset, byteOffset := locate(content, chunk.Text, cursor)
		chunk.Offset = offset
		// следующий чанк начинается не раньше текущего
		cursor = byteOffset

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func (r *RecursiveChunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			rest = separators[i+1:]
			break
		}
	}

	var out []string
	var good []string
	for _, piece := range strings.Split(text, separator) {
		if piece == "" {
			continue
		}
		if runeLen(piece) < r.config.MaxChunkSize {
			good = append(good, piece)
			continue
		}

		if len(good) > 0 {
			out = append(out, r.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, r.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, r.merge(good, separator)...)
	}

	return out
}

// merge склеивает куски через separator, не превышая MaxChunkSize
func (r *RecursiveChunker) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)
	size, overlap := r.config.MaxChunkSize, r.config.Overlap

	var docs []string
	var current []string
	total := 0

	joinedLen := func(extra int) int {
		if len(current) > 0 {
			return total + extra + sepLen
		}
		return total + extra
	}

	for _, piece := range pieces {
		l := runeLen(piece)

		if joinedLen(l) > size && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
				docs = append(docs, doc)
			}
			// оставляем хвост для overlap
			for total > overlap || (joinedLen(l) > size && total > 0) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}

		total = joinedLen(l)
		current = append(current, piece)
	}

	if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

var errBadConfig = errors.New("invalid chunker config")

func validate(c Config) error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: max chunk size %d", errBadConfig, c.MaxChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: overlap %d with chunk size %d", errBadConfig, c.Overlap, c.MaxChunkSize)
	}
	return nil
}
