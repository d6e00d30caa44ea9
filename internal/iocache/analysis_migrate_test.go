package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/huangsam/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAnalysisNoneBackend(t *testing.T) {
	err := MigrateAnalysis(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateAnalysisUnsupported(t *testing.T) {
	assert.Error(t, MigrateAnalysis("redis", "", -1))
}

// tableExists reports whether a table exists in a SQLite file.
func tableExists(t *testing.T, path, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count))
	return count == 1
}

func TestMigrateAnalysisSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Latest version creates both tables
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))
	assert.True(t, tableExists(t, dbPath, analysisRunsTable))
	assert.True(t, tableExists(t, dbPath, contributorHealthTable))

	// Running again is a no-op
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))

	// Version 1 keeps only the runs table
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 1))
	assert.True(t, tableExists(t, dbPath, analysisRunsTable))
	assert.False(t, tableExists(t, dbPath, contributorHealthTable))

	// Version 0 removes everything
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 0))
	assert.False(t, tableExists(t, dbPath, analysisRunsTable))

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 0))

	// A store opened on a migrated file works as usual
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 3))
	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, err = store.BeginAnalysis(fixedNow, nil)
	assert.NoError(t, err)
	require.NoError(t, store.Close())
}
