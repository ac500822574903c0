package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilwork/grimoire/internal/catalog"
)

// buildCatalog creates a catalog database declaring necronomicron with
// the given columns and returns its path.
func buildCatalog(t *testing.T, columns []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	cat, err := catalog.Open(path)
	require.NoError(t, err)
	defer cat.Close()

	err = cat.ImportSources(context.Background(), []catalog.SourceTable{
		{Name: "necronomicron", Database: "vault", Schema: "occult", Columns: columns},
	})
	require.NoError(t, err)
	return path
}

func TestGraphCommandText(t *testing.T) {
	out, err := executeCommand("graph", "testdata/project")
	require.NoError(t, err)

	assert.Contains(t, out, "Graph: 3 nodes, 2 edges")
	assert.Contains(t, out, "Roots: necronomicron")
	assert.Contains(t, out, "Order: necronomicron, summoning_ledger, seance_counts")
	assert.NotContains(t, out, "Isolated:")
}

func TestGraphCommandJSON(t *testing.T) {
	out, err := executeCommand("--format", "json", "graph", "testdata/project")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), data["nodes"])
	assert.Equal(t, float64(2), data["edges"])
	assert.Equal(t, []interface{}{"necronomicron"}, data["roots"])
	assert.Equal(t,
		[]interface{}{"necronomicron", "summoning_ledger", "seance_counts"},
		data["order"])
}

func TestGraphCommandDot(t *testing.T) {
	out, err := executeCommand("graph", "--dot", "testdata/project")
	require.NoError(t, err)

	assert.Contains(t, out, "digraph {")
	assert.Contains(t, out, `label = "necronomicron"`)
	assert.Contains(t, out, `label = "summoning_ledger"`)
	assert.Contains(t, out, "->")
}

func TestGraphCommandRejectsCycle(t *testing.T) {
	out, err := executeCommand("graph", "testdata/cycle")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
	assert.Contains(t, out, "dependency cycle")
}

func TestGraphCommandWithCatalog(t *testing.T) {
	db := buildCatalog(t, []string{"source", "performed_at", "circle"})

	out, err := executeCommand("graph", "--db", db, "testdata/project")
	require.NoError(t, err)
	assert.Contains(t, out, "Graph: 3 nodes, 2 edges")
}

func TestGraphCommandCatalogRejectsUnknownColumn(t *testing.T) {
	// The catalog knows necronomicron but not its circle column, so
	// summoning_ledger's select must be rejected.
	db := buildCatalog(t, []string{"source", "performed_at"})

	out, err := executeCommand("graph", "--db", db, "testdata/project")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "summoning_ledger")
	assert.Contains(t, out, `"circle"`)
}
