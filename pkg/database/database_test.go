package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSQLScripts(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_seed.sql"), []byte(`INSERT INTO items (name) VALUES ('first');`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_items.sql"), []byte(`CREATE TABLE IF NOT EXISTS items (name TEXT NOT NULL);`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not sql"), 0o644))

	require.NoError(t, RunSQLScripts(db, os.DirFS(dir)))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRunSQLScriptsReportsFailingFile(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_broken.sql"), []byte(`CREATE TABLE (`), 0o644))

	err = RunSQLScripts(db, os.DirFS(dir))
	assert.ErrorContains(t, err, "001_broken.sql")
}

func TestMigrate(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "Migrations can be applied twice")

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'collection_runs'`).Scan(&name))
	assert.Equal(t, "collection_runs", name)
}

func TestInitOutsideRepositoryRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Cleanup(func() { Close() })

	require.NoError(t, Init(filepath.Join(t.TempDir(), "runs.db")))

	var count int
	require.NoError(t, DB.QueryRow(`SELECT COUNT(*) FROM collection_runs`).Scan(&count))
	assert.Zero(t, count)
}
