package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile лежит рядом с файлами chromem в persist каталоге
const ManifestFile = "manifest.json"

// Manifest все поколения индексации, записанные в индекс
type Manifest struct {
	Collection  string       `json:"collection"`
	Generations []Generation `json:"generations"`

	path string
}

// Generation один запуск индексации
type Generation struct {
	ID             string     `json:"id"`
	EmbeddingModel string     `json:"embedding_model"`
	Dimensions     int        `json:"dimensions"`
	Files          []FileInfo `json:"files"`
	Chunks         int        `json:"chunks"`
	CreatedAt      time.Time  `json:"created_at"`
}

type FileInfo struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
	Chunks       int       `json:"chunks"`
}

// LoadManifest читает manifest из dir. Нет файла: пустой manifest
func LoadManifest(dir, collection string) (*Manifest, error) {
	m := &Manifest{Collection: collection, path: filepath.Join(dir, ManifestFile)}

	f, err := os.Open(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", m.path, err)
	}
	return m, nil
}

// Last последнее поколение, если есть
func (m *Manifest) Last() (Generation, bool) {
	if len(m.Generations) == 0 {
		return Generation{}, false
	}
	return m.Generations[len(m.Generations)-1], true
}

// CheckModel сообщает, если текущий embedder отличается от того,
// которым записано последнее поколение. Что с этим делать, решает вызывающий.
func (m *Manifest) CheckModel(model string, dims int) error {
	last, ok := m.Last()
	if !ok {
		return nil
	}
	if last.EmbeddingModel != model || last.Dimensions != dims {
		return fmt.Errorf("%w: index written with %s/%d, current embedder is %s/%d",
			ErrDimensionMismatch, last.EmbeddingModel, last.Dimensions, model, dims)
	}
	return nil
}

// Append добавляет g и атомарно пишет manifest
func (m *Manifest) Append(g Generation) error {
	m.Generations = append(m.Generations, g)
	return m.save()
}

func (m *Manifest) save() error {
	if m.path == "" {
		return errors.New("manifest has no path")
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
