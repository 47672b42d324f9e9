package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"legal_rag/internal/frontend"
	"legal_rag/internal/rag"
)

var (
	askAPI  string
	askHTML bool

	queryHTML bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Interactive chat against the query API",
	Long: `Reads one question per line from stdin and prints the answer and its
sources. Questions are sent to the HTTP API (API_URL or --api).
With --html answers are printed as HTML for HTML-capable chat clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		api := cfg.APIURL
		if askAPI != "" {
			api = askAPI
		}
		client := frontend.NewClient(api, nil)
		repl := frontend.NewREPL(client, os.Stdin, os.Stdout, logger, frontend.WithHTML(askHTML))
		return repl.Run(cmd.Context())
	},
}

var queryCmd = &cobra.Command{
	Use:   "query QUESTION",
	Short: "Answer one question in-process, without the HTTP API",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, logger, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		engine, err := a.Engine()
		if err != nil {
			return err
		}
		ask := frontend.AskFunc(func(ctx context.Context, q string) (frontend.Response, error) {
			return engine.Answer(ctx, q)
		})
		resp, err := ask.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			if rag.KindOf(err) == rag.KindInvalidInput {
				return err
			}
			// пользователю только извинение, причина уходит в лог
			fmt.Println(frontend.RequestFailureMessage)
			logger.Error("Query failed", "kind", rag.KindOf(err).String(), "error", err)
			return errReported
		}

		text, err := frontend.FormatAnswer(resp.Text, queryHTML)
		if err != nil {
			logger.Warn("Failed to render answer", "error", err)
			text = resp.Text
		}
		for _, part := range frontend.SplitMessage(text, frontend.MessageLimit) {
			fmt.Println(part)
		}
		fmt.Print(frontend.FormatSources(resp))
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askAPI, "api", "", "query API base URL (overrides API_URL)")
	askCmd.Flags().BoolVar(&askHTML, "html", false, "print answers as HTML")
	queryCmd.Flags().BoolVar(&queryHTML, "html", false, "print the answer as HTML")
}
