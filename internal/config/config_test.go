package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-nudges-backend/internal/scoring"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NUDGE_CONFIG", "PORT", "CORS_ORIGINS", "SEED_ON_START", "RECOMMENDATION_LIMIT",
		"ANALYTICS_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "SQLITE_PATH",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.CORSOrigins)
	assert.True(t, cfg.SeedOnStart)
	assert.Equal(t, 4, cfg.Limit)
	assert.Equal(t, scoring.DefaultWeights(), cfg.Weights)
	assert.False(t, cfg.Analytics.Enabled())
	assert.Equal(t, 5432, cfg.Analytics.DBPort)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SEED_ON_START", "false")
	t.Setenv("ANALYTICS_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("DB_USER", "nudge")
	t.Setenv("DB_NAME", "nudges")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.SeedOnStart)
	assert.Equal(t, "postgres", cfg.Analytics.Driver)
	assert.Equal(t, 5432, cfg.Analytics.DBPort)
	assert.Equal(t, "host=db port=5432 user=nudge password= dbname=nudges sslmode=disable", cfg.Analytics.DSN())
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nudge.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 4000
limit: 3
weights:
  urgency: 1
  impact: 0.5
  effort: 0.1
  tod: 0.1
  penalty: 0.3
analytics:
  driver: sqlite
  sqlite_path: /tmp/nudges.db
`), 0o644))
	t.Setenv("NUDGE_CONFIG", path)
	t.Setenv("PORT", "4001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4001, cfg.Port, "env wins over file")
	assert.Equal(t, 3, cfg.Limit)
	assert.Equal(t, scoring.Weights{Urgency: 1, Impact: 0.5, Effort: 0.1, TimeOfDay: 0.1, Penalty: 0.3}, cfg.Weights)
	assert.Equal(t, "/tmp/nudges.db", cfg.Analytics.DSN())
	assert.True(t, cfg.SeedOnStart, "unset keys keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("NUDGE_CONFIG", filepath.Join(t.TempDir(), "nope.yml"))
		_, err := Load()
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("bad driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ANALYTICS_DRIVER", "mongo")
		_, err := Load()
		assert.ErrorContains(t, err, "unsupported analytics driver")
	})
}
