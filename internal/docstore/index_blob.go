package docstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Aman-CERP/catalogsearch/internal/bm25index"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// PersistIndexBlob writes the BM25 blob (inverted_index, term_frequencies,
// doc_lengths, last_updated) to the reserved single-row table.
func (s *Store) PersistIndexBlob(ctx context.Context, blob bm25index.Blob) error {
	payload, err := json.Marshal(blob)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalog_index_blob (id, blob_json) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET blob_json = excluded.blob_json
	`, string(payload))
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}
	return nil
}

// LoadIndexBlob reads the persisted BM25 blob. The second return value
// is false if no blob has ever been persisted (cold start with nothing
// to hydrate from).
func (s *Store) LoadIndexBlob(ctx context.Context) (bm25index.Blob, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT blob_json FROM catalog_index_blob WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return bm25index.Blob{}, false, nil
	}
	if err != nil {
		return bm25index.Blob{}, false, cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}

	var blob bm25index.Blob
	if err := json.Unmarshal([]byte(payload), &blob); err != nil {
		return bm25index.Blob{}, false, cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
	}
	return blob, true, nil
}
