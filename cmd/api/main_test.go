package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ConfigErrorIsReturned(t *testing.T) {
	t.Setenv("NUDGE_CONFIG", "")
	t.Setenv("ANALYTICS_DRIVER", "mysql")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRun_AnalyticsStoreErrorIsReturned(t *testing.T) {
	t.Setenv("NUDGE_CONFIG", "")
	t.Setenv("ANALYTICS_DRIVER", "sqlite")
	// a regular file where the database directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	t.Setenv("SQLITE_PATH", filepath.Join(blocker, "events.db"))

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect analytics store")
}
