package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phabops/phabctl/internal/core/domain"
)

func TestOptionsFile_LoadMissing(t *testing.T) {
	file := NewOptionsFile(filepath.Join(t.TempDir(), "options.yaml"))

	options, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, options.Len())
}

func TestOptionsFile_SaveAndLoad(t *testing.T) {
	file := NewOptionsFile(filepath.Join(t.TempDir(), "options.yaml"))

	options := domain.NewOptions()
	options.Set("mariadb_phabricator_password", "s3cret.pw")
	options.Set("phabricator_host", "phabricator.local")
	require.NoError(t, file.Save(options))

	loaded, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	pw, err := loaded.Get("mariadb_phabricator_password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret.pw", pw)
}

func TestOptionsFile_SaveOverwrites(t *testing.T) {
	file := NewOptionsFile(filepath.Join(t.TempDir(), "options.yaml"))

	options := domain.NewOptions()
	options.Set("key", "first")
	require.NoError(t, file.Save(options))

	options.Set("key", "second")
	require.NoError(t, file.Save(options))

	loaded, err := file.Load()
	require.NoError(t, err)
	v, err := loaded.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestOptionsFile_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "options.yaml")
	file := NewOptionsFile(path)

	require.NoError(t, file.Save(domain.NewOptions()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestOptionsFile_SavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	file := NewOptionsFile(path)

	options := domain.NewOptions()
	options.Set("mariadb_root_password", "hunter2.pw")
	require.NoError(t, file.Save(options))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestOptionsFile_LoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o600))

	_, err := NewOptionsFile(path).Load()
	assert.Error(t, err)
}
