// Package pdftext извлекает текст PDF по страницам.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrNoText страницы есть, но ни на одной нет текста
// (scanned documents without an OCR layer).
var ErrNoText = errors.New("pdf contains no extractable text")

// Page текст одной страницы, Number с 1
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Document страницы одного файла
type Document struct {
	Path  string
	Pages []Page

	starts []int
}

// ExtractFile открывает PDF по path и читает все страницы
func ExtractFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}

	pages, err := Extract(f, info.Size())
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", path, err)
	}
	return NewDocument(path, pages), nil
}

// ExtractBytes читает страницы PDF из памяти
func ExtractBytes(data []byte) ([]Page, error) {
	return Extract(bytes.NewReader(data), int64(len(data)))
}

// Extract читает все страницы из r, пустые страницы пропускаются.
// Парсер паникует на некоторых битых файлах, паника возвращается ошибкой.
func Extract(r io.ReaderAt, size int64) (pages []Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

// NewDocument собирает Document и запоминает смещения начала страниц
func NewDocument(path string, pages []Page) Document {
	d := Document{Path: path, Pages: pages, starts: make([]int, len(pages))}
	offset := 0
	for i, p := range pages {
		d.starts[i] = offset
		offset += utf8.RuneCountInString(p.Text) + 1
	}
	return d
}

// Text склеивает страницы через перевод строки
func (d Document) Text() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

// PageAt номер страницы для смещения в рунах внутри Text().
// 0 для документа без страниц.
func (d Document) PageAt(offset int) int {
	if len(d.Pages) == 0 {
		return 0
	}
	starts := d.starts
	if len(starts) != len(d.Pages) {
		starts = NewDocument(d.Path, d.Pages).starts
	}
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return d.Pages[i].Number
}
