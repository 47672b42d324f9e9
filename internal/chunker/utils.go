package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// CreateChunk создаёт чанк с новым ID.
// ID случайный: повторная индексация того же файла добавляет новые записи.
func CreateChunk(text, source, section string, metadata map[string]string) Chunk {
	text = strings.TrimSpace(text)

	if metadata == nil {
		metadata = make(map[string]string)
	}

	return Chunk{
		ID:       uuid.NewString(),
		Text:     text,
		Source:   source,
		Section:  section,
		Metadata: metadata,
	}
}

func sectionName(n int) string {
	return fmt.Sprintf("Chunk %d", n)
}

// runeLen длина строки в символах
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// locate ищет чанк в тексте начиная с from и возвращает смещение в рунах.
// Если не нашли (после trim текст мог измениться), возвращает from.
func locate(content, chunk string, fromByte int) (runeOffset, byteOffset int) {
	if fromByte > len(content) {
		fromByte = len(content)
	}
	idx := strings.Index(content[fromByte:], chunk)
	if idx < 0 {
		return utf8.RuneCountInString(content[:fromByte]), fromByte
	}
	byteOffset = fromByte + idx
	return utf8.RuneCountInString(content[:byteOffset]), byteOffset
}
