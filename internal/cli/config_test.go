package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps ambient sift.yaml files and SIFT_ variables out of the
// test's way.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SIFT_DATABASE", "")
	t.Setenv("SIFT_FORMAT", "")
	os.Unsetenv("SIFT_DATABASE")
	os.Unsetenv("SIFT_FORMAT")
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database)
	assert.Equal(t, "table", cfg.Format)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_File(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "sift.yaml")
	body := "database: /var/data/stats.db\nformat: csv\nverbose: true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/data/stats.db", cfg.Database)
	assert.Equal(t, "csv", cfg.Format)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "sift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: csv\n"), 0o644))
	t.Setenv("SIFT_FORMAT", "json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadConfig_WorkingDirFile(t *testing.T) {
	isolate(t)

	require.NoError(t, os.WriteFile("sift.yaml", []byte("database: local.db\n"), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "local.db", cfg.Database)
}

func TestLoadConfig_ExplicitMissing(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
