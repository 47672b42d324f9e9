package main

import (
	"github.com/spf13/cobra"

	"legal_rag/internal/app"
	"legal_rag/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP query API",
	Long: `Serves POST /query and GET /health until SIGINT or SIGTERM.

Environment variables:
  HTTP_ADDR           Listen address (default: :8000)
  TOP_K               Chunks retrieved per question (default: 3)
  RETRIEVAL_TIMEOUT   Vector search timeout (default: 15s)
  GENERATION_TIMEOUT  LLM call timeout (default: 60s)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cfg, logger, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.Handler()
		if err != nil {
			return err
		}

		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		logger.Info("API ready", "url", "http://"+app.ListenAddr(addr)+"/query")
		return server.Run(ctx, addr, h, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
}
