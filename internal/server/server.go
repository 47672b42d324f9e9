// Package server отдаёт query engine по HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"legal_rag/internal/rag"
)

const (
	maxBodyBytes       = 1 << 20
	healthCheckTimeout = 3 * time.Second
	shutdownTimeout    = 10 * time.Second

	msgBadRequest = "Requisição inválida."
	msgInternal   = "Erro ao processar a consulta. Tente novamente mais tarde."
)

// Answerer отвечает на один вопрос
type Answerer interface {
	Answer(ctx context.Context, question string) (rag.Answer, error)
}

// IndexStatus доступность и размер векторного индекса
type IndexStatus interface {
	Health(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// QueryRequest тело POST /query
type QueryRequest struct {
	Question string `json:"question"`
}

// ErrorResponse тело любого ответа не 2xx
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse тело GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Documents int    `json:"documents"`
	Timestamp string `json:"timestamp"`
}

// NewHandler собирает mux API с логированием запросов
func NewHandler(engine Answerer, idx IndexStatus, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("POST /query", queryHandler(engine, logger))
	mux.Handle("GET /health", healthHandler(idx))

	return logRequests(mux, logger)
}

func queryHandler(engine Answerer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: msgBadRequest})
			return
		}

		answer, err := engine.Answer(r.Context(), req.Question)
		if err != nil {
			if errors.Is(err, rag.ErrInvalidInput) {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "A pergunta não pode ser vazia."})
				return
			}
			logger.Error("Query failed", "kind", rag.KindOf(err).String(), "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: msgInternal})
			return
		}

		if answer.Sources == nil {
			answer.Sources = []rag.Source{}
		}
		writeJSON(w, http.StatusOK, answer)
	}
}

func healthHandler(idx IndexStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := HealthResponse{Timestamp: time.Now().UTC().Format(time.RFC3339)}

		err := idx.Health(ctx)
		if err == nil {
			resp.Documents, err = idx.Count(ctx)
		}
		if err != nil {
			resp.Status = "unhealthy"
			resp.Index = "disconnected"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		resp.Status = "healthy"
		resp.Index = "connected"
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Run обслуживает addr до отмены ctx, затем мягко останавливает сервер
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
