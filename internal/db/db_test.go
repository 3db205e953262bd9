package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect("mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestConnect_SQLiteMemoryAndMigrate(t *testing.T) {
	database, err := Connect(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, database.Migrate(ctx))

	var n int
	require.NoError(t, database.QueryRowContext(ctx, `SELECT COUNT(*) FROM nudge_events`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestConnect_SQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "analytics.db")

	database, err := Connect(DriverSQLite, path)
	require.NoError(t, err)
	defer database.Close()

	assert.FileExists(t, path)
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO t (a, b) VALUES ($1, $2)`

	assert.Equal(t, `INSERT INTO t (a, b) VALUES (?, ?)`, (&DB{Driver: DriverSQLite}).Rebind(q))
	assert.Equal(t, q, (&DB{Driver: DriverPostgres}).Rebind(q))
}
