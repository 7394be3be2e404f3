package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_QueryFiles(t *testing.T) {
	out, _, err := execRoot(t, "validate",
		filepath.Join("testdata", "queries", "inline.cue"),
		filepath.Join("testdata", "queries", "players.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "ok    "+filepath.Join("testdata", "queries", "inline.cue"))
}

func TestValidate_Scenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	body := `name: smoke
description: minimal valid scenario
table:
  columns: [id]
  rows:
    - [aaron]
steps:
  - verb: select
    exprs: ["id"]
expect:
  columns: [id]
  rows:
    - [aaron]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	out, _, err := execRoot(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestValidate_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte(`query: {steps: []}`), 0o644))

	out, _, err := execRoot(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "must set from or table")
}

func TestValidate_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	out, _, err := execRoot(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "unsupported file type")
}

func TestValidate_JSONOutput(t *testing.T) {
	out, _, err := execRoot(t, "validate", "--format", "json",
		filepath.Join("testdata", "queries", "inline.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, `"valid":true`)
}
