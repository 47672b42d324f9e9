package frontend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Asker отвечает на вопросы: подходит и *Client, и engine в процессе
type Asker interface {
	Ask(ctx context.Context, question string) (Response, error)
}

// AskFunc адаптер для функции ответа, например rag.Engine.Answer
type AskFunc func(ctx context.Context, question string) (Response, error)

func (f AskFunc) Ask(ctx context.Context, question string) (Response, error) {
	return f(ctx, question)
}

// REPL читает по вопросу на строку и печатает ответы
type REPL struct {
	asker  Asker
	in     io.Reader
	out    io.Writer
	limit  int
	html   bool
	logger *slog.Logger
}

// REPLOption настраивает REPL
type REPLOption func(*REPL)

// WithHTML печатает ответы в HTML (goldmark) для HTML-клиентов
func WithHTML(enabled bool) REPLOption {
	return func(r *REPL) { r.html = enabled }
}

func NewREPL(asker Asker, in io.Reader, out io.Writer, logger *slog.Logger, opts ...REPLOption) *REPL {
	if logger == nil {
		logger = slog.Default()
	}
	r := &REPL{asker: asker, in: in, out: out, limit: MessageLimit, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, Greeting)

	scanner := bufio.NewScanner(r.in)

	// длинные вопросы
	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Shutting down chat")
			return nil
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("stdin error: %w", err)
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/start":
			fmt.Fprintln(r.out, Greeting)
			continue
		}

		r.handle(ctx, line)
	}
}

func (r *REPL) handle(ctx context.Context, question string) {
	r.logger.Debug("Received question", "length", len(question))

	resp, err := r.asker.Ask(ctx, question)
	if err != nil {
		r.logger.Warn("Question failed", "error", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintln(r.out, APIFailureMessage)
		} else {
			fmt.Fprintln(r.out, RequestFailureMessage)
		}
		return
	}

	text, err := FormatAnswer(resp.Text, r.html)
	if err != nil {
		r.logger.Warn("Failed to render answer", "error", err)
		text = resp.Text
	}
	for _, part := range SplitMessage(text, r.limit) {
		fmt.Fprintln(r.out, part)
	}
	if src := FormatSources(resp); src != "" {
		fmt.Fprint(r.out, src)
	}
}
