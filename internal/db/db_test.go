package db

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrationsDir() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
}

func TestRunMigrationsAppliesOnce(t *testing.T) {
	database, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	applied, err := RunMigrations(database, migrationsDir())
	require.NoError(t, err)
	assert.NotEmpty(t, applied)

	again, err := RunMigrations(database, migrationsDir())
	require.NoError(t, err)
	assert.Empty(t, again)

	var tables int
	require.NoError(t, database.Get(&tables,
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'collection_snapshots', 'pomodoro_sessions', 'study_groups')`))
	assert.Equal(t, 4, tables)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}
