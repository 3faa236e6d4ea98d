package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/keepsake-labs/memoir-cli/internal/adapters/driven/index/sqlite/migrations"
	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorIndexStore = (*Store)(nil)

// docColumns is the scan order used by every row helper in this file.
const docColumns = "id, text, source, timestamp, importance, created_timestamp, updated_timestamp, source_document_id"

// ImportanceRater scores a document's importance in [0,1]. Failures are
// the rater's problem; it always returns a usable score.
type ImportanceRater interface {
	Score(ctx context.Context, doc domain.EmbeddingDocument) float64
}

// Store is the SQLite-backed vector index. Reads go straight to the
// database; writes are serialized through a single writer goroutine so
// concurrent indexing never interleaves partial upserts.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService

	rater ImportanceRater

	writes     chan *writeOp
	writerDone chan struct{}
	mu         sync.RWMutex
	closed     bool
}

// NewStore opens (or creates) the index database under dataDir. If
// dataDir is empty, defaults to ~/.memoir/data/index.db.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("index store: %w", domain.ErrEmbeddingUnavailable)
	}

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

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL keeps reads flowing while the writer goroutine holds the pen
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		embedder:   embedder,
		writes:     make(chan *writeOp, writeQueueSize),
		writerDone: make(chan struct{}),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running index migrations: %w", err)
	}

	go s.runWriter()
	return s, nil
}

// SetImportanceRater enables eager importance scoring during indexing.
func (s *Store) SetImportanceRater(rater ImportanceRater) {
	s.rater = rater
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close drains the write queue and closes the database. Further writes
// fail with domain.ErrIndexClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.writes)
	s.mu.Unlock()

	<-s.writerDone
	return s.db.Close()
}

// Index upserts documents. Embeddings and importance scores are computed
// before enqueueing so the write queue never blocks on a model backend.
// Identity resolution reuses the ID, creation timestamp and any existing
// importance of a matching row.
func (s *Store) Index(ctx context.Context, docs []domain.EmbeddingDocument, extractImportance bool) ([]domain.EmbeddingDocument, error) {
	if len(docs) == 0 {
		return []domain.EmbeddingDocument{}, nil
	}

	logger.Debug("Indexing %d documents (extractImportance=%t)", len(docs), extractImportance)
	now := time.Now().UTC()

	out := make([]domain.EmbeddingDocument, len(docs))
	copy(out, docs)

	texts := make([]string, len(out))
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
		if out[i].CreatedTimestamp.IsZero() {
			out[i].CreatedTimestamp = now
		}
		out[i].UpdatedTimestamp = now

		existing, err := s.findByIdentity(ctx, out[i])
		if err != nil {
			return nil, fmt.Errorf("resolve document identity: %w", err)
		}
		if existing != nil {
			out[i].ID = existing.ID
			out[i].CreatedTimestamp = existing.CreatedTimestamp
			if out[i].Importance == nil {
				out[i].Importance = existing.Importance
			}
		}

		texts[i] = out[i].Text
	}

	if extractImportance && s.rater != nil {
		for i := range out {
			if out[i].Importance != nil {
				continue
			}
			score := s.rater.Score(ctx, out[i])
			out[i].Importance = &score
		}
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(embeddings) != len(out) {
		return nil, fmt.Errorf("embed documents: got %d embeddings for %d texts", len(embeddings), len(out))
	}

	err = s.enqueue(ctx, func() error {
		return s.upsertAll(out, embeddings)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// upsertAll writes all documents in one transaction, assigning IDs to new
// rows in place. Runs on the writer goroutine.
func (s *Store) upsertAll(docs []domain.EmbeddingDocument, embeddings [][]float32) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	for i := range docs {
		blob := float32SliceToBytes(embeddings[i])

		// The pre-queue lookup only sees committed rows. An earlier document
		// in this batch or a concurrent Index call may have claimed the same
		// identity tuple since, so re-resolve inside the transaction.
		if docs[i].ID == 0 {
			if err := adoptIdentityTx(tx, &docs[i]); err != nil {
				return err
			}
		}

		if docs[i].ID != 0 {
			_, err := tx.Exec(`
				UPDATE embedding_documents
				SET text = ?, source = ?, timestamp = ?, importance = ?,
				    updated_timestamp = ?, source_document_id = ?, embedding = ?
				WHERE id = ?
			`, docs[i].Text, docs[i].Source, docs[i].Timestamp, nullFloat(docs[i].Importance),
				docs[i].UpdatedTimestamp, docs[i].SourceDocumentID, blob, docs[i].ID)
			if err != nil {
				return fmt.Errorf("update document %d: %w", docs[i].ID, err)
			}
			continue
		}

		res, err := tx.Exec(`
			INSERT INTO embedding_documents
				(text, source, timestamp, importance, created_timestamp, updated_timestamp, source_document_id, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, docs[i].Text, docs[i].Source, docs[i].Timestamp, nullFloat(docs[i].Importance),
			docs[i].CreatedTimestamp, docs[i].UpdatedTimestamp, docs[i].SourceDocumentID, blob)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read inserted document id: %w", err)
		}
		docs[i].ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Query runs a structured metadata query, optionally ranked by similarity
// to a topic.
func (s *Store) Query(ctx context.Context, opts driven.QueryOptions) ([]driven.QueryHit, error) {
	where, args := buildFilters(opts)

	if opts.Topic != "" {
		return s.similarityQuery(ctx, opts, where, args)
	}
	return s.metadataQuery(ctx, opts, where, args)
}

// metadataQuery resolves a filter-only query entirely in SQL.
func (s *Store) metadataQuery(ctx context.Context, opts driven.QueryOptions, where string, args []any) ([]driven.QueryHit, error) {
	query := "SELECT " + docColumns + " FROM embedding_documents" + where

	if opts.GroupBySourceDocument {
		query += " GROUP BY source_document_id"
	}

	switch opts.OrderBy {
	case driven.OrderByTimestampDesc:
		query += " ORDER BY timestamp DESC"
	case driven.OrderByTimestampAsc:
		query += " ORDER BY timestamp ASC"
	}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var hits []driven.QueryHit
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.QueryHit{Document: *doc})
	}
	return hits, rows.Err()
}

// similarityQuery loads all filter-matching rows with their embeddings and
// ranks them by cosine similarity to the topic in memory.
func (s *Store) similarityQuery(ctx context.Context, opts driven.QueryOptions, where string, args []any) ([]driven.QueryHit, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, opts.Topic)
	if err != nil {
		return nil, fmt.Errorf("embed topic: %w", err)
	}

	query := "SELECT " + docColumns + ", embedding FROM embedding_documents" + where
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents for similarity: %w", err)
	}
	defer rows.Close()

	var hits []driven.QueryHit
	for rows.Next() {
		doc, blob, err := scanDocWithEmbedding(rows)
		if err != nil {
			return nil, err
		}

		similarity := cosineSimilarity(queryEmbedding, bytesToFloat32Slice(blob))
		hits = append(hits, driven.QueryHit{
			Document:  *doc,
			Certainty: certainty(similarity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Certainty > hits[j].Certainty
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(hits) {
			return []driven.QueryHit{}, nil
		}
		hits = hits[opts.Offset:]
	}
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

// Get fetches a single document by ID.
func (s *Store) Get(ctx context.Context, id int64) (*domain.EmbeddingDocument, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+docColumns+" FROM embedding_documents WHERE id = ?", id)

	doc, err := scanDoc(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes documents by ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	return s.enqueue(ctx, func() error {
		_, err := s.db.Exec(
			"DELETE FROM embedding_documents WHERE id IN ("+strings.Join(placeholders, ", ")+")",
			args...)
		if err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		return nil
	})
}

// DeleteBySourceDocuments resolves matching IDs and deletes them. The
// resolve and the delete are separate steps; a document indexed in
// between survives.
func (s *Store) DeleteBySourceDocuments(ctx context.Context, sourceDocumentIDs []string) (int, error) {
	if len(sourceDocumentIDs) == 0 {
		return 0, nil
	}

	hits, err := s.Query(ctx, driven.QueryOptions{SourceDocumentIDs: sourceDocumentIDs})
	if err != nil {
		return 0, fmt.Errorf("resolve documents to delete: %w", err)
	}
	if len(hits) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.Document.ID)
	}
	if err := s.Delete(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Count returns the number of indexed documents, optionally filtered by
// source document membership.
func (s *Store) Count(ctx context.Context, sourceDocumentIDs []string) (int, error) {
	where, args := buildFilters(driven.QueryOptions{SourceDocumentIDs: sourceDocumentIDs})

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embedding_documents"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// adoptIdentityTx resolves a document's dedup tuple inside the write
// transaction, adopting the matching row's ID, creation timestamp and
// importance. No match leaves the document untouched.
func adoptIdentityTx(tx *sql.Tx, doc *domain.EmbeddingDocument) error {
	var created sql.NullTime
	var importance sql.NullFloat64

	err := tx.QueryRow(`
		SELECT id, created_timestamp, importance FROM embedding_documents
		WHERE text = ? AND timestamp = ? AND source = ? AND source_document_id = ?
	`, doc.Text, doc.Timestamp.UTC(), doc.Source, doc.SourceDocumentID).
		Scan(&doc.ID, &created, &importance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve document identity: %w", err)
	}

	if created.Valid {
		doc.CreatedTimestamp = created.Time.UTC()
	}
	if doc.Importance == nil && importance.Valid {
		v := importance.Float64
		doc.Importance = &v
	}
	return nil
}

// findByIdentity looks up a document by its dedup tuple.
func (s *Store) findByIdentity(ctx context.Context, doc domain.EmbeddingDocument) (*domain.EmbeddingDocument, error) {
	hits, err := s.Query(ctx, driven.QueryOptions{Identity: &doc, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0].Document, nil
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

// buildFilters renders the shared WHERE clause for metadata filters.
func buildFilters(opts driven.QueryOptions) (string, []any) {
	var clauses []string
	var args []any

	if opts.Identity != nil {
		clauses = append(clauses, "text = ? AND timestamp = ? AND source = ? AND source_document_id = ?")
		args = append(args, opts.Identity.Text, opts.Identity.Timestamp.UTC(),
			opts.Identity.Source, opts.Identity.SourceDocumentID)
	}

	if len(opts.SourceDocumentIDs) > 0 {
		placeholders := make([]string, len(opts.SourceDocumentIDs))
		for i, id := range opts.SourceDocumentIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		clauses = append(clauses, "source_document_id IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoc(row rowScanner) (*domain.EmbeddingDocument, error) {
	var doc domain.EmbeddingDocument
	var importance sql.NullFloat64
	var timestamp, created, updated sql.NullTime

	err := row.Scan(&doc.ID, &doc.Text, &doc.Source, &timestamp, &importance,
		&created, &updated, &doc.SourceDocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	applyScanned(&doc, importance, timestamp, created, updated)
	return &doc, nil
}

func scanDocWithEmbedding(row rowScanner) (*domain.EmbeddingDocument, []byte, error) {
	var doc domain.EmbeddingDocument
	var importance sql.NullFloat64
	var timestamp, created, updated sql.NullTime
	var blob []byte

	err := row.Scan(&doc.ID, &doc.Text, &doc.Source, &timestamp, &importance,
		&created, &updated, &doc.SourceDocumentID, &blob)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning document with embedding: %w", err)
	}

	applyScanned(&doc, importance, timestamp, created, updated)
	return &doc, blob, nil
}

func applyScanned(doc *domain.EmbeddingDocument, importance sql.NullFloat64, timestamp, created, updated sql.NullTime) {
	if importance.Valid {
		v := importance.Float64
		doc.Importance = &v
	}
	if timestamp.Valid {
		doc.Timestamp = timestamp.Time.UTC()
	}
	if created.Valid {
		doc.CreatedTimestamp = created.Time.UTC()
	}
	if updated.Valid {
		doc.UpdatedTimestamp = updated.Time.UTC()
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// cosineSimilarity returns a value in [-1, 1]; zero for mismatched or
// zero-norm vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// certainty maps cosine similarity to [0, 1].
func certainty(similarity float64) float64 {
	c := (similarity + 1) / 2
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
