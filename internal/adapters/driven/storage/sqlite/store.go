package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/keepsake-labs/memoir-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RawDocumentStore = (*Store)(nil)

// Store is the SQLite-backed raw document store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a raw document store at the specified data directory.
// If dataDir is empty, defaults to ~/.memoir/data/documents.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".memoir", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "documents.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveConnection stores or updates a document connection.
func (s *Store) SaveConnection(ctx context.Context, conn *domain.DocumentConnection) error {
	configJSON, err := json.Marshal(conn.Configuration)
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}

	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document_connections (id, connector_name, configuration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			connector_name = excluded.connector_name,
			configuration = excluded.configuration,
			updated_at = excluded.updated_at
	`, conn.ID, conn.ConnectorName, string(configJSON), conn.CreatedAt, conn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving connection: %w", err)
	}
	return nil
}

// GetConnection retrieves a connection by ID.
func (s *Store) GetConnection(ctx context.Context, id string) (*domain.DocumentConnection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, connector_name, configuration, created_at, updated_at
		FROM document_connections WHERE id = ?
	`, id)

	conn, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return conn, nil
}

// ListConnections returns all connections.
func (s *Store) ListConnections(ctx context.Context) ([]domain.DocumentConnection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, connector_name, configuration, created_at, updated_at
		FROM document_connections ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	var conns []domain.DocumentConnection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, *conn)
	}
	return conns, rows.Err()
}

// DeleteConnection removes a connection.
func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM document_connections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	return nil
}

// SaveDocument stores or updates a raw document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.RawDocument) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, connection_id, name, content_type, content, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			connection_id = excluded.connection_id,
			name = excluded.name,
			content_type = excluded.content_type,
			content = excluded.content,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, doc.ID, doc.ConnectionID, doc.Name, doc.ContentType, doc.Content, doc.Size,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a raw document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.RawDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, connection_id, name, content_type, content, size, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns documents, optionally filtered by connection.
func (s *Store) ListDocuments(ctx context.Context, connectionID string) ([]domain.RawDocument, error) {
	query := `
		SELECT id, connection_id, name, content_type, content, size, created_at, updated_at
		FROM documents
	`
	var args []any
	if connectionID != "" {
		query += " WHERE connection_id = ?"
		args = append(args, connectionID)
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.RawDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DeleteDocuments removes raw documents by ID.
func (s *Store) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE id IN ("+strings.Join(placeholders, ", ")+")",
		args...)
	if err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*domain.DocumentConnection, error) {
	var conn domain.DocumentConnection
	var configJSON string
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&conn.ID, &conn.ConnectorName, &configJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning connection: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &conn.Configuration); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}
	if createdAt.Valid {
		conn.CreatedAt = createdAt.Time.UTC()
	}
	if updatedAt.Valid {
		conn.UpdatedAt = updatedAt.Time.UTC()
	}
	return &conn, nil
}

func scanDocument(row rowScanner) (*domain.RawDocument, error) {
	var doc domain.RawDocument
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&doc.ID, &doc.ConnectionID, &doc.Name, &doc.ContentType,
		&doc.Content, &doc.Size, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time.UTC()
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time.UTC()
	}
	return &doc, nil
}
