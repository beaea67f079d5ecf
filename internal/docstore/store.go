// Package docstore implements the Document Store Adapter (spec §6): a
// thin abstraction over an external key-document store keyed by opaque
// document IDs, backed here by a pure-Go SQLite database. The actual
// backing store is an external collaborator per spec §1; this package
// is a concrete, runnable stand-in for it.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// Store is a SQLite-backed Document Store. The catalog_documents table
// is the opaque key-document mapping; the reserved "bm25_index" key is
// modeled as a distinct single-row table instead of an in-band sentinel
// row, so ScanAll never needs a WHERE clause to exclude it.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// validateIntegrity runs PRAGMA integrity_check against an existing
// database file before opening it for real use, mirroring the
// corruption-detection pattern the teacher's SQLite-backed index uses.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// Open opens (creating if necessary) a SQLite-backed Document Store at
// path. An empty path opens an in-memory store, for tests. The store
// uses WAL mode, but it holds a single connection and a read/write
// mutex, so a write blocks concurrent reads and other writes.
func Open(path string) (*Store, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeFilePermission, err)
		}
		if err := validateIntegrity(path); err != nil {
			_ = os.Remove(path)
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS catalog_documents (
		doc_id                  TEXT PRIMARY KEY,
		title                   TEXT NOT NULL DEFAULT '',
		description             TEXT NOT NULL DEFAULT '',
		category                TEXT NOT NULL DEFAULT '',
		metadata_json           TEXT NOT NULL DEFAULT '{}',
		embedding_json          TEXT,
		embedding_generated_at  TEXT,
		embedding_model         TEXT
	);

	CREATE TABLE IF NOT EXISTS catalog_index_blob (
		id        INTEGER PRIMARY KEY CHECK (id = 1),
		blob_json TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type documentRow struct {
	DocID                string
	Title                string
	Description          string
	Category             string
	MetadataJSON         string
	EmbeddingJSON        sql.NullString
	EmbeddingGeneratedAt sql.NullString
	EmbeddingModel       sql.NullString
}

func (r documentRow) toDocument() (catalog.Document, error) {
	doc := catalog.Document{
		DocID:       r.DocID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
	}
	if r.MetadataJSON != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(r.MetadataJSON), &meta); err != nil {
			return catalog.Document{}, cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
		}
		doc.Metadata = meta
	}
	if r.EmbeddingJSON.Valid {
		var vec []float32
		if err := json.Unmarshal([]byte(r.EmbeddingJSON.String), &vec); err != nil {
			return catalog.Document{}, cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
		}
		doc.Embedding = vec
	}
	if r.EmbeddingGeneratedAt.Valid {
		t, err := time.Parse(time.RFC3339, r.EmbeddingGeneratedAt.String)
		if err == nil {
			doc.EmbeddingGeneratedAt = t
		}
	}
	if r.EmbeddingModel.Valid {
		doc.EmbeddingModel = r.EmbeddingModel.String
	}
	return doc, nil
}

const documentColumns = `doc_id, title, description, category, metadata_json, embedding_json, embedding_generated_at, embedding_model`

func scanDocumentRow(scan func(dest ...any) error) (catalog.Document, error) {
	var r documentRow
	if err := scan(&r.DocID, &r.Title, &r.Description, &r.Category, &r.MetadataJSON,
		&r.EmbeddingJSON, &r.EmbeddingGeneratedAt, &r.EmbeddingModel); err != nil {
		return catalog.Document{}, err
	}
	return r.toDocument()
}

// FetchByID retrieves one document. Returns ErrNotFound if doc_id is
// absent.
func (s *Store) FetchByID(ctx context.Context, docID string) (catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM catalog_documents WHERE doc_id = ?", docID)
	doc, err := scanDocumentRow(row.Scan)
	if err == sql.ErrNoRows {
		return catalog.Document{}, cerrors.WithCause(cerrors.ErrNotFound, nil).WithDetail("doc_id", docID)
	}
	if err != nil {
		return catalog.Document{}, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	return doc, nil
}

// ScanAll returns every document, implicitly excluding the reserved
// index-blob entry since it lives in a separate table.
func (s *Store) ScanAll(ctx context.Context) ([]catalog.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM catalog_documents ORDER BY doc_id")
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	defer rows.Close()

	var docs []catalog.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows.Scan)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	return docs, nil
}

// Put inserts or replaces a document. Put stands in for the external
// write path (seeding, webhook-driven creates) the core itself never
// performs — Ingestion only ever reads and re-persists embeddings.
func (s *Store) Put(ctx context.Context, doc catalog.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalog_documents (doc_id, title, description, category, metadata_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			metadata_json = excluded.metadata_json
	`, doc.DocID, doc.Title, doc.Description, doc.Category, string(metaJSON))
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	return nil
}

// PersistEmbedding writes a document's embedding, embedding_generated_at,
// and embedding_model fields. Returns ErrNotFound if doc_id is absent.
func (s *Store) PersistEmbedding(ctx context.Context, docID string, vector []float32, model string, generatedAt time.Time) error {
	vecJSON, err := json.Marshal(vector)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE catalog_documents
		SET embedding_json = ?, embedding_generated_at = ?, embedding_model = ?
		WHERE doc_id = ?
	`, string(vecJSON), generatedAt.UTC().Format(time.RFC3339), model, docID)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	if n == 0 {
		return cerrors.WithCause(cerrors.ErrNotFound, nil).WithDetail("doc_id", docID)
	}
	return nil
}
