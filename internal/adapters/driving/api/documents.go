package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
)

// handleListIndexDocuments lists indexed chunks newest first.
//
// GET /v1/index_documents?offset=&limit=&source_document_ids=&group_by_source=
func (s *Server) handleListIndexDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := driven.QueryOptions{
		OrderBy: driven.OrderByTimestampDesc,
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, fmt.Errorf("%w: invalid limit %q", domain.ErrInvalidInput, v))
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeError(w, fmt.Errorf("%w: invalid offset %q", domain.ErrInvalidInput, v))
			return
		}
		opts.Offset = offset
	}
	if v := q.Get("source_document_ids"); v != "" {
		opts.SourceDocumentIDs = strings.Split(v, ",")
	}
	if v := q.Get("group_by_source"); v == "true" || v == "1" {
		opts.GroupBySourceDocument = true
	}

	hits, err := s.index.Query(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	docs := make([]domain.EmbeddingDocument, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, hit.Document)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetIndexDocument fetches one indexed chunk by ID.
//
// GET /v1/index_documents/{id}
func (s *Server) handleGetIndexDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid document id %q", domain.ErrInvalidInput, r.PathValue("id")))
		return
	}

	doc, err := s.index.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteIndexDocuments removes indexed chunks by ID.
//
// DELETE /v1/index_documents  {"ids": [1, 2, 3]}
func (s *Server) handleDeleteIndexDocuments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, fmt.Errorf("%w: ids are required", domain.ErrInvalidInput))
		return
	}

	if err := s.index.Delete(r.Context(), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": len(req.IDs)})
}

// handleIngestDocuments stores raw documents, optionally under a new
// connection.
//
// POST /v1/documents
func (s *Server) handleIngestDocuments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectorName string               `json:"connector_name"`
		Configuration map[string]any       `json:"configuration"`
		Documents     []domain.RawDocument `json:"documents"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, fmt.Errorf("%w: documents are required", domain.ErrInvalidInput))
		return
	}

	var conn *domain.DocumentConnection
	if req.ConnectorName != "" {
		conn = &domain.DocumentConnection{
			ConnectorName: req.ConnectorName,
			Configuration: req.Configuration,
		}
	}

	saved, err := s.documents.Ingest(r.Context(), conn, req.Documents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"documents": saved})
}

// handleListDocuments lists raw documents with their indexed chunk count.
//
// GET /v1/documents?connection_id=
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListDocuments(r.Context(), r.URL.Query().Get("connection_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument removes a raw document, optionally cascading to its
// indexed data.
//
// DELETE /v1/documents/{id}?delete_indexed_data=true
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cascade := r.URL.Query().Get("delete_indexed_data") == "true"

	if err := s.documents.RemoveDocuments(r.Context(), []string{id}, cascade); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleIndexDocuments chunks and indexes stored raw documents.
//
// POST /v1/documents/index
func (s *Server) handleIndexDocuments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentIDs       []string `json:"document_ids"`
		IsChat            bool     `json:"is_chat"`
		ExtractImportance bool     `json:"extract_importance"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.DocumentIDs) == 0 {
		writeError(w, fmt.Errorf("%w: document_ids are required", domain.ErrInvalidInput))
		return
	}

	indexed, err := s.documents.IndexDocuments(r.Context(), req.DocumentIDs, req.IsChat, req.ExtractImportance)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": indexed})
}

// handleUnindexDocuments removes indexed data for stored raw documents.
//
// POST /v1/documents/unindex
func (s *Server) handleUnindexDocuments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	removed, err := s.documents.UnindexDocuments(r.Context(), req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// handleDeleteConnection removes a connection with optional cascades.
//
// DELETE /v1/connections/{id}?delete_documents=true&delete_indexed_data=true
func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()
	deleteDocuments := q.Get("delete_documents") == "true"
	deleteIndexedData := q.Get("delete_indexed_data") == "true"

	err := s.documents.RemoveConnection(r.Context(), id, deleteDocuments, deleteIndexedData)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
