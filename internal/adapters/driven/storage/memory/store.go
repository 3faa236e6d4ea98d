// Package memory provides an in-memory raw document store, used in tests
// and wherever persistence is not needed.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RawDocumentStore = (*Store)(nil)

// Store keeps documents and connections in maps guarded by a mutex.
type Store struct {
	mu          sync.RWMutex
	connections map[string]domain.DocumentConnection
	documents   map[string]domain.RawDocument
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		connections: make(map[string]domain.DocumentConnection),
		documents:   make(map[string]domain.RawDocument),
	}
}

// SaveConnection stores or updates a document connection.
func (s *Store) SaveConnection(_ context.Context, conn *domain.DocumentConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	s.connections[conn.ID] = *conn
	return nil
}

// GetConnection retrieves a connection by ID.
func (s *Store) GetConnection(_ context.Context, id string) (*domain.DocumentConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &conn, nil
}

// ListConnections returns all connections sorted by creation time.
func (s *Store) ListConnections(_ context.Context) ([]domain.DocumentConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]domain.DocumentConnection, 0, len(s.connections))
	for _, conn := range s.connections {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].CreatedAt.Before(conns[j].CreatedAt)
	})
	return conns, nil
}

// DeleteConnection removes a connection.
func (s *Store) DeleteConnection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.connections, id)
	return nil
}

// SaveDocument stores or updates a raw document.
func (s *Store) SaveDocument(_ context.Context, doc *domain.RawDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a raw document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.RawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns documents, optionally filtered by connection,
// sorted by creation time.
func (s *Store) ListDocuments(_ context.Context, connectionID string) ([]domain.RawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.RawDocument, 0, len(s.documents))
	for _, doc := range s.documents {
		if connectionID != "" && doc.ConnectionID != connectionID {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// DeleteDocuments removes raw documents by ID.
func (s *Store) DeleteDocuments(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.documents, id)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
