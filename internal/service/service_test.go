package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"studiora/backend/internal/db"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	_, err = db.RunMigrations(database, filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations"))
	require.NoError(t, err)
	return database
}

func ptr[T any](v T) *T {
	return &v
}

var ctx = context.Background()
