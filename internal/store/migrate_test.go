package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hockijo/techconnect/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_NoneBackend(t *testing.T) {
	err := Migrate(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrate_UnsupportedBackend(t *testing.T) {
	assert.Error(t, Migrate("oracle", "", -1))
}

func TestMigrate_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Run migration to latest version
	require.NoError(t, Migrate(schema.SQLiteBackend, dbPath, -1))

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Run migration again (should be a no-op)
	assert.NoError(t, Migrate(schema.SQLiteBackend, dbPath, -1))

	// Step back to a specific version
	assert.NoError(t, Migrate(schema.SQLiteBackend, dbPath, 2))

	// Rollback to version 0
	assert.NoError(t, Migrate(schema.SQLiteBackend, dbPath, 0))

	// Migrate back up to the last version
	assert.NoError(t, Migrate(schema.SQLiteBackend, dbPath, len(allTables)))

	// A store opened on a migrated database works as usual
	s, err := NewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	status, err := s.GetStatus()
	require.NoError(t, err)
	assert.Len(t, status.TableSizes, len(allTables))
}

func TestClearStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "clear.db")
	s, err := NewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing a missing file is fine
	assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))

	assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	assert.Error(t, ClearStore("oracle", "", ""))
}
