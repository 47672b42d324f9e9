package chunker

import (
	"strconv"
	"unicode"
)

// TextChunker разбивает plain text окнами фиксированного размера с overlap
type TextChunker struct {
	config Config
}

// NewTextChunker создаёт новый size chunker
func NewTextChunker(config Config) *TextChunker {
	return &TextChunker{config: config}
}

func (s *TextChunker) Name() string {
	return "size"
}

func (s *TextChunker) Chunk(content, source string) ([]Chunk, error) {
	if err := validate(s.config); err != nil {
		return nil, err
	}
	return s.chunkBySize(content, source), nil
}

// chunkBySize простое разбиение по размеру с overlap
func (s *TextChunker) chunkBySize(content, source string) []Chunk {
	var chunks []Chunk
	runes := []rune(content)
	chunkNum := 1
	step := s.config.MaxChunkSize - s.config.Overlap

	for i := 0; i < len(runes); i += step {
		end := min(i+s.config.MaxChunkSize, len(runes))

		window := runes[i:end]
		lead := 0
		for lead < len(window) && unicode.IsSpace(window[lead]) {
			lead++
		}

		chunk := CreateChunk(string(window), source, sectionName(chunkNum), map[string]string{
			"chunk_num": strconv.Itoa(chunkNum),
			"method":    "size",
		})
		if chunk.Text != "" {
			chunk.Offset = i + lead
			chunks = append(chunks, chunk)
			chunkNum++
		}

		if end >= len(runes) {
			break
		}
	}

	return chunks
}
