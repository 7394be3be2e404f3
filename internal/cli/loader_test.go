package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQueryFile_Inline(t *testing.T) {
	qf, err := LoadQueryFile(filepath.Join("testdata", "queries", "inline.cue"))
	require.NoError(t, err)

	require.NotNil(t, qf.Table)
	assert.Equal(t, []string{"id", "g"}, qf.Table.Columns)
	assert.Len(t, qf.Table.Rows, 2)
	assert.Empty(t, qf.From)

	require.Len(t, qf.Steps, 2)
	assert.Equal(t, "filter", qf.Steps[0].Verb)
	assert.Equal(t, []string{"g > 10"}, qf.Steps[0].Exprs)
	assert.Equal(t, "select", qf.Steps[1].Verb)
}

func TestLoadQueryFile_From(t *testing.T) {
	qf, err := LoadQueryFile(filepath.Join("testdata", "queries", "players.cue"))
	require.NoError(t, err)

	assert.Equal(t, "players", qf.From)
	assert.Nil(t, qf.Table)
	require.Contains(t, qf.Env, "cutoff")
	assert.EqualValues(t, 1950, qf.Env["cutoff"])
	require.Len(t, qf.Steps, 2)
	assert.Equal(t, "arrange", qf.Steps[1].Verb)
	require.Len(t, qf.Steps[1].Keys, 1)
	assert.Equal(t, "id", qf.Steps[1].Keys[0].Expr)
}

func TestLoadQueryFile_NotFound(t *testing.T) {
	_, err := LoadQueryFile(filepath.Join("testdata", "queries", "missing.cue"))
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func writeQuery(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "q.cue")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadQueryFile_NoQueryValue(t *testing.T) {
	path := writeQuery(t, `pipeline: {from: "t"}`)
	_, err := LoadQueryFile(path)
	assert.ErrorContains(t, err, "top-level query value")
}

func TestLoadQueryFile_FromAndTableConflict(t *testing.T) {
	path := writeQuery(t, `query: {
	from: "t"
	table: {columns: ["id"], rows: []}
	steps: []
}`)
	_, err := LoadQueryFile(path)
	assert.ErrorContains(t, err, "only one of from and table")
}

func TestLoadQueryFile_MissingSource(t *testing.T) {
	path := writeQuery(t, `query: {steps: []}`)
	_, err := LoadQueryFile(path)
	assert.ErrorContains(t, err, "must set from or table")
}

func TestLoadQueryFile_UnknownVerb(t *testing.T) {
	path := writeQuery(t, `query: {
	from: "t"
	steps: [{verb: "pivot", exprs: ["x"]}]
}`)
	_, err := LoadQueryFile(path)
	assert.ErrorContains(t, err, `unknown verb "pivot"`)
}

func TestLoadQueryFile_NotConcrete(t *testing.T) {
	path := writeQuery(t, `query: {
	from: string
	steps: []
}`)
	_, err := LoadQueryFile(path)
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeLoadFailed, le.Code)
}
