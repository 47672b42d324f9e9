// Package main CLI legal_rag: индексация PDF, HTTP API и чат-клиенты.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"legal_rag/internal/app"
	"legal_rag/internal/config"
	"legal_rag/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "legal_rag",
	Short: "Question answering over legal PDF documents",
	Long: `Indexes legal PDFs into a vector index and answers questions grounded
in the indexed text.

Configuration is read from the environment (and a .env file if present):
  DATASET_DIR      PDF directory (default: ./dataset)
  PERSIST_DIR      Index directory (default: ./data/chroma)
  EMBEDDING_MODE   LOCAL, OPENAI or OLLAMA (default: LOCAL)
  INDEX_BACKEND    chromem or qdrant (default: chromem)
  LLM_PROVIDER     openai or compat (default: openai)
  OPENAI_API_KEY   OpenAI key for embeddings and generation`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported команда уже сообщила об ошибке пользователю и записала причину в лог
var errReported = errors.New("error already reported")

func init() {
	rootCmd.AddCommand(serveCmd, ingestCmd, askCmd, queryCmd, extractCmd)
}

func main() {
	// .env необязателен
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			slog.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}

// loadConfig читает конфиг и создаёт логгер
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openApp(ctx context.Context) (*app.App, *config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, cfg, logger, nil
}
