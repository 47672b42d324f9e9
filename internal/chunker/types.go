package chunker

// Chunk представляет единицу текста для векторизации
type Chunk struct {
	ID       string            // Уникальный идентификатор (uuid)
	Text     string            // Текст чанка
	Source   string            // Путь исходного файла
	Section  string            // Название секции (номер чанка и т.д.)
	Metadata map[string]string // Дополнительные метаданные
	Offset   int               // Смещение начала чанка в исходном тексте (в рунах)
}

// Chunker - интерфейс для всех типов chunker'ов
type Chunker interface {
	// Chunk разбивает контент на чанки
	Chunk(content, source string) ([]Chunk, error)

	// Name возвращает название chunker'а для логирования
	Name() string
}

// Config содержит общие параметры для chunker'ов
type Config struct {
	MaxChunkSize int // Максимальный размер чанка в символах
	Overlap      int // Размер overlap между чанками
}
