package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"legal_rag/internal/ingest"
)

var (
	ingestDataset string
	ingestPreview string
	previewK      int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index every PDF under the dataset directory",
	Long: `Extracts text from every PDF under the dataset directory, splits it into
overlapping chunks, embeds them and appends them to the vector index.

Each run adds a new generation; chunks from earlier runs are kept.
Files that fail are reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cfg, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		dataset := cfg.DatasetDir
		if ingestDataset != "" {
			dataset = ingestDataset
		}

		p, err := a.Pipeline()
		if err != nil {
			return err
		}

		fmt.Printf("Indexing PDFs from %s...\n", dataset)
		res, err := p.Run(ctx, dataset)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}

		fmt.Println()
		fmt.Println("Ingestion complete")
		fmt.Printf("  Generation: %s\n", res.Generation)
		fmt.Printf("  Files:      %d found, %d indexed\n", res.TotalFiles, res.Indexed)
		fmt.Printf("  Chunks:     %d\n", res.TotalChunks)
		fmt.Printf("  Duration:   %s\n", res.Duration.Round(time.Millisecond))
		if len(res.Failed) > 0 {
			fmt.Printf("  Failed:     %d\n", len(res.Failed))
			for _, f := range res.Failed {
				fmt.Printf("    - %s (%s): %v\n", f.Path, f.Stage, f.Err)
			}
		}

		if ingestPreview != "" {
			fmt.Println()
			return ingest.Preview(ctx, os.Stdout, a.Index(), ingestPreview, previewK)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDataset, "dataset", "", "PDF directory (overrides DATASET_DIR)")
	ingestCmd.Flags().StringVar(&ingestPreview, "preview", "lei", "query to preview after indexing; empty disables")
	ingestCmd.Flags().IntVar(&previewK, "preview-k", 2, "results shown by --preview")
}
