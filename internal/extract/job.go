package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"legal_rag/internal/pdftext"
)

// PageText одна страница результата
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Output JSON для каждого исходного PDF
type Output struct {
	Source      string     `json:"source"`
	Pages       []PageText `json:"pages"`
	ExtractedAt time.Time  `json:"extracted_at"`
}

// Failure объект, который не удалось обработать
type Failure struct {
	Key string
	Err error
}

// Report итоги запуска
type Report struct {
	Listed    int
	Processed []string
	Skipped   []string
	Failed    []Failure
}

// Job читает PDF из SourcePrefix и пишет JSON в DestPrefix
type Job struct {
	Store        ObjectStore
	SourcePrefix string
	DestPrefix   string
	Logger       *slog.Logger

	now func() time.Time
}

// OutputKey dataset/a/b.pdf -> extraidos/a/b.pdf.json
func (j *Job) OutputKey(key string) string {
	return j.DestPrefix + strings.TrimPrefix(key, j.SourcePrefix) + ".json"
}

// Run обрабатывает все PDF. Ошибки отдельных объектов попадают в Report, а не в err
func (j *Job) Run(ctx context.Context) (Report, error) {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := j.now
	if now == nil {
		now = time.Now
	}

	keys, err := j.Store.List(ctx, j.SourcePrefix)
	if err != nil {
		return Report{}, fmt.Errorf("list %s: %w", j.SourcePrefix, err)
	}

	report := Report{Listed: len(keys)}
	if len(keys) == 0 {
		logger.Info("No objects found", "prefix", j.SourcePrefix)
		return report, nil
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if strings.HasSuffix(key, "/") || !strings.EqualFold(path.Ext(key), ".pdf") {
			report.Skipped = append(report.Skipped, key)
			continue
		}

		logger.Info("Processing object", "key", key)
		out, err := j.process(ctx, key, now)
		if err != nil {
			logger.Warn("Failed to process object", "key", key, "error", err)
			report.Failed = append(report.Failed, Failure{Key: key, Err: err})
			continue
		}
		logger.Info("Saved extraction", "key", out)
		report.Processed = append(report.Processed, key)
	}

	logger.Info("Extraction complete",
		"processed", len(report.Processed),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (j *Job) process(ctx context.Context, key string, now func() time.Time) (string, error) {
	data, err := j.Store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}

	pages, err := pdftext.ExtractBytes(data)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	doc := Output{Source: key, ExtractedAt: now().UTC()}
	for _, p := range pages {
		doc.Pages = append(doc.Pages, PageText{Page: p.Number, Text: p.Text})
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	outKey := j.OutputKey(key)
	if err := j.Store.Put(ctx, outKey, body, "application/json"); err != nil {
		return "", fmt.Errorf("put %s: %w", outKey, err)
	}
	return outKey, nil
}
