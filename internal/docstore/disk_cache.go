package docstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Aman-CERP/catalogsearch/internal/bm25index"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// DiskCache mirrors the BM25 blob across four files — postings,
// term-frequencies, doc-lengths, and last-updated — as an optional,
// advisory speed-up for cold start. Per spec §6 the Doc Store blob
// always wins on disagreement; DiskCache never participates in
// write-path consistency. docmap is not mirrored here: the Doc Store
// remains the source of truth for metadata.
type DiskCache struct {
	dir  string
	lock *flock.Flock
}

const (
	postingsFile        = "postings.json"
	termFrequenciesFile = "term_frequencies.json"
	docLengthsFile      = "doc_lengths.json"
	lastUpdatedFile     = "last_updated.json"
	cacheLockFile       = ".catalogsearch-cache.lock"
)

// NewDiskCache prepares a cache mirror rooted at dir, creating it if
// necessary.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeFilePermission, err)
	}
	return &DiskCache{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, cacheLockFile)),
	}, nil
}

// Save writes the four cache files under an exclusive advisory lock, so
// two processes never interleave partial writes. Blocks until the lock
// is available.
func (c *DiskCache) Save(blob bm25index.Blob) error {
	if err := c.lock.Lock(); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeFilePermission, err)
	}
	defer func() { _ = c.lock.Unlock() }()

	writers := map[string]any{
		postingsFile:        blob.InvertedIndex,
		termFrequenciesFile: blob.TermFrequencies,
		docLengthsFile:      blob.DocLengths,
		lastUpdatedFile:     blob.LastUpdated,
	}
	for name, value := range writers {
		if err := writeJSONFile(filepath.Join(c.dir, name), value); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the four cache files back into a Blob. A missing
// postings file causes Load to return ok=false rather than an error,
// since the cache is advisory and a cold cache is an expected state.
func (c *DiskCache) Load() (blob bm25index.Blob, ok bool, err error) {
	if err := c.lock.Lock(); err != nil {
		return bm25index.Blob{}, false, cerrors.Wrap(cerrors.ErrCodeFilePermission, err)
	}
	defer func() { _ = c.lock.Unlock() }()

	if err := readJSONFile(filepath.Join(c.dir, postingsFile), &blob.InvertedIndex); err != nil {
		if os.IsNotExist(err) {
			return bm25index.Blob{}, false, nil
		}
		return bm25index.Blob{}, false, err
	}
	if err := readJSONFile(filepath.Join(c.dir, termFrequenciesFile), &blob.TermFrequencies); err != nil {
		return bm25index.Blob{}, false, err
	}
	if err := readJSONFile(filepath.Join(c.dir, docLengthsFile), &blob.DocLengths); err != nil {
		return bm25index.Blob{}, false, err
	}
	if err := readJSONFile(filepath.Join(c.dir, lastUpdatedFile), &blob.LastUpdated); err != nil {
		return bm25index.Blob{}, false, err
	}
	return blob, true, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeFilePermission, err)
	}
	return nil
}

func readJSONFile(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
	}
	return nil
}
