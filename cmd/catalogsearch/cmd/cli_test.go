package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	"github.com/Aman-CERP/catalogsearch/internal/docstore"
)

// newTestCLIEnv points the engine the CLI commands build at a scratch
// SQLite file and a fast static embedder, via the same CATALOGSEARCH_*
// environment variables a real deployment would set.
func newTestCLIEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	t.Setenv("CATALOGSEARCH_STORE_URI", dbPath)
	t.Setenv("CATALOGSEARCH_EMBEDDER", "static")
	t.Setenv("CATALOGSEARCH_EMBEDDING_DIM", "32")
	return dbPath
}

// execNoArgs runs cmd with an explicit empty argument list. Without
// SetArgs, cobra parses os.Args[1:], which under go test holds the test
// binary's own -test.* flags.
func execNoArgs(cmd *cobra.Command) error {
	cmd.SetArgs([]string{})
	return cmd.Execute()
}

func seedDocuments(t *testing.T, dbPath string, docs ...catalog.Document) {
	t.Helper()
	store, err := docstore.Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	for _, d := range docs {
		require.NoError(t, store.Put(context.Background(), d))
	}
}
