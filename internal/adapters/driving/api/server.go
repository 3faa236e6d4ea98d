// Package api exposes the memory layer over HTTP: recall search, document
// management and OpenAI-style completion endpoints with transparent memory
// augmentation.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driving"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// DefaultAddr is the default listen address.
const DefaultAddr = "127.0.0.1:8181"

// Server wires the application services to HTTP handlers.
type Server struct {
	recall     driving.RecallService
	augmenter  driving.Augmenter
	documents  driving.DocumentService
	index      driven.VectorIndexStore
	completion driven.CompletionService

	httpServer *http.Server
}

// NewServer creates an API server. completion is the generation backend
// that augmented requests are forwarded to; nil disables the completion
// endpoints.
func NewServer(
	addr string,
	recall driving.RecallService,
	augmenter driving.Augmenter,
	documents driving.DocumentService,
	index driven.VectorIndexStore,
	completion driven.CompletionService,
) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		recall:     recall,
		augmenter:  augmenter,
		documents:  documents,
		index:      index,
		completion: completion,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/documents/search", s.handleSearch)

	mux.HandleFunc("GET /v1/index_documents", s.handleListIndexDocuments)
	mux.HandleFunc("GET /v1/index_documents/{id}", s.handleGetIndexDocument)
	mux.HandleFunc("DELETE /v1/index_documents", s.handleDeleteIndexDocuments)

	mux.HandleFunc("POST /v1/documents", s.handleIngestDocuments)
	mux.HandleFunc("GET /v1/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /v1/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /v1/documents/index", s.handleIndexDocuments)
	mux.HandleFunc("POST /v1/documents/unindex", s.handleUnindexDocuments)

	mux.HandleFunc("DELETE /v1/connections/{id}", s.handleDeleteConnection)

	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletion)
	mux.HandleFunc("POST /v1/completions", s.handleCompletion)

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

// writeError maps domain errors to HTTP statuses: invalid input is the
// caller's fault, a missing resource is 404, everything else is 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidWeights):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLLMUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
