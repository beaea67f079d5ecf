package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	"github.com/Aman-CERP/catalogsearch/internal/hybridrank"
)

func TestSearchCmd_TextOutput_FindsSeededDocument(t *testing.T) {
	dbPath := newTestCLIEnv(t)
	seedDocuments(t, dbPath,
		catalog.Document{DocID: "d1", Title: "OPC cement 43 grade", Category: "cement"},
		catalog.Document{DocID: "d2", Title: "TMT steel bars", Category: "steel"},
	)
	require.NoError(t, execNoArgs(newIndexRebuildCmd()))

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"cement"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "d1")
}

func TestSearchCmd_JSONOutput_IsValidAndScored(t *testing.T) {
	dbPath := newTestCLIEnv(t)
	seedDocuments(t, dbPath, catalog.Document{DocID: "d1", Title: "waterproofing membrane", Category: "waterproofing"})
	require.NoError(t, execNoArgs(newIndexRebuildCmd()))

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"waterproofing", "--format", "json"})

	require.NoError(t, cmd.Execute())

	var results []hybridrank.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
}

func TestSearchCmd_NoResults_ReportsEmptyWithoutError(t *testing.T) {
	newTestCLIEnv(t)
	require.NoError(t, execNoArgs(newIndexRebuildCmd()))

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"anything"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}

func TestSearchCmd_AddedToRoot(t *testing.T) {
	rootCmd := NewRootCmd()
	found, _, err := rootCmd.Find([]string{"search"})
	require.NoError(t, err)
	assert.Equal(t, "search", found.Name())
}
