package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommandText(t *testing.T) {
	out, err := executeCommand("compile", "testdata/project")
	require.NoError(t, err)

	// Blocks come out in name order; the synthesized necronomicron
	// table has no SQL and is skipped.
	assert.Equal(t, "-- seance_counts\n"+
		"SELECT * FROM summoning_ledger ORDER BY circle DESC LIMIT 10\n"+
		"\n"+
		"-- summoning_ledger\n"+
		"SELECT source, performed_at, circle FROM necronomicron WHERE source <> 'hollow'\n",
		out)
}

func TestCompileCommandJSON(t *testing.T) {
	out, err := executeCommand("--format", "json", "compile", "testdata/project")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "midnight_vault", data["project"])

	queries, ok := data["queries"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t,
		"SELECT source, performed_at, circle FROM necronomicron WHERE source <> 'hollow'",
		queries["summoning_ledger"])
	assert.Equal(t,
		"SELECT * FROM summoning_ledger ORDER BY circle DESC LIMIT 10",
		queries["seance_counts"])
}

func TestCompileCommandOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.sql")

	out, err := executeCommand("compile", "--output", path, "testdata/project")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 2 queries to "+path)

	script, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(script), "-- seance_counts\n"))
	assert.Contains(t, string(script), "-- summoning_ledger")
}

func TestCompileCommandRejectsBrokenQuery(t *testing.T) {
	out, err := executeCommand("compile", "testdata/broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `unknown stage "fliter"`)
}
