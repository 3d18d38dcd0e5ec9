// Package httpapi exposes the crawl, answering and vector index operations
// over HTTP. The /vectors endpoints serve the same wire format the remote
// vector bridge consumes, so one deployment can act as another's index.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Server holds the handlers' dependencies.
type Server struct {
	crawler  driving.CrawlOrchestrator
	answerer driving.AnswerService
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
}

// New creates an API server. embedder and llm are only consulted by the
// health endpoint and may be nil.
func New(
	crawler driving.CrawlOrchestrator,
	answerer driving.AnswerService,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
) *Server {
	return &Server{
		crawler:  crawler,
		answerer: answerer,
		vectors:  vectors,
		embedder: embedder,
		llm:      llm,
	}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/crawl", s.handleCrawl)
	mux.HandleFunc("GET /api/crawl/status", s.handleCrawlStatus)
	mux.HandleFunc("POST /api/documents", s.handleIngest)

	mux.HandleFunc("POST /api/rag", s.handleAsk)
	mux.HandleFunc("GET /api/rag/health", s.handleHealth)

	mux.HandleFunc("POST /vectors/search", s.handleVectorSearch)
	mux.HandleFunc("POST /vectors/documents", s.handleVectorStore)
	mux.HandleFunc("GET /vectors/documents/{id}", s.handleVectorGet)
	mux.HandleFunc("POST /vectors/cleardb", s.handleVectorClear)

	return mux
}

// ListenAndServe runs the API server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("Failed to encode response: %v", err)
	}
}

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
