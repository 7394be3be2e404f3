package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQL_PrintsStatement(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execRoot(t, "sql", "--db", db, filepath.Join("testdata", "queries", "players.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, `SELECT * FROM "players" WHERE "year" > ? ORDER BY "id"`)
	assert.Contains(t, out, "-- params: [1950]")
}

func TestSQL_JSON(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execRoot(t, "sql", "--format", "json", "--db", db, filepath.Join("testdata", "queries", "players.cue"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["sql"], `FROM "players"`)
}

func TestSQL_InlineTableRejected(t *testing.T) {
	out, _, err := execRoot(t, "sql", filepath.Join("testdata", "queries", "inline.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "inline table")
}
