package chunker

import (
	"fmt"
	"strings"
)

// Factory создаёт chunker по названию метода
type Factory struct {
	config Config
}

// NewFactory создаёт новую фабрику chunker'ов
func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// GetChunker возвращает chunker по названию метода.
// Пустой метод означает recursive.
func (f *Factory) GetChunker(method string) (Chunker, error) {
	if err := validate(f.config); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", "recursive":
		return NewRecursiveChunker(f.config), nil
	case "size", "simple", "text":
		return NewTextChunker(f.config), nil
	default:
		return nil, fmt.Errorf("unknown chunking method: %s", method)
	}
}
