package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"legal_rag/internal/index"
)

// Discover рекурсивно ищет PDF под root в лексическом порядке
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset dir %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fileCanProcess(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk dataset dir: %w", err)
	}
	return files, nil
}

func fileCanProcess(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// provenance метаданные источника: полный путь, имя файла, папка
func provenance(path string) map[string]string {
	return map[string]string{
		index.MetaSource:   path,
		index.MetaFileName: filepath.Base(path),
		index.MetaFolder:   filepath.Base(filepath.Dir(path)),
	}
}
