package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"legal_rag/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Convert PDFs in an S3 bucket to per-page JSON",
	Long: `Lists S3_SOURCE_PREFIX in S3_BUCKET, extracts the text of every PDF and
writes it as JSON under S3_DEST_PREFIX (dataset/lei.pdf -> extraidos/lei.pdf.json).

Environment variables:
  S3_ENDPOINT     MinIO/S3 endpoint (host:port or URL)
  S3_ACCESS_KEY   Access key
  S3_SECRET_KEY   Secret key
  S3_BUCKET       Bucket name`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := extract.NewS3Store(cfg.S3)
		if err != nil {
			return err
		}
		if err := store.CheckBucket(ctx); err != nil {
			return err
		}

		job := &extract.Job{
			Store:        store,
			SourcePrefix: cfg.S3.SourcePrefix,
			DestPrefix:   cfg.S3.DestPrefix,
			Logger:       logger,
		}
		report, err := job.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d of %d objects (%d skipped, %d failed)\n",
			len(report.Processed), report.Listed, len(report.Skipped), len(report.Failed))
		for _, f := range report.Failed {
			fmt.Printf("  - %s: %v\n", f.Key, f.Err)
		}
		return nil
	},
}
