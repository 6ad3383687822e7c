package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FEEDLIGHT_CONFIG", "")
	t.Setenv("FEEDLIGHT_ADDR", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "feedlight.db", cfg.Database.SQLitePath)
	assert.Empty(t, cfg.Database.DSN)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 12, cfg.Feed.PageSize)
	assert.Equal(t, 3, cfg.Feed.CategoryBatchSize)
	assert.Equal(t, 350*time.Millisecond, cfg.Feed.MinLoadDuration)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  addr: ":9090"
database:
  sqlitePath: /var/lib/feedlight/data.db
feed:
  pageSize: 24
  minLoadDuration: 100ms
redis:
  addr: localhost:6379
  ttl: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv("FEEDLIGHT_CONFIG", path)
	t.Setenv("FEEDLIGHT_ADDR", ":3000")

	cfg := Load()

	// Env beats file; file beats defaults.
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/feedlight/data.db", cfg.Database.SQLitePath)
	assert.Equal(t, 24, cfg.Feed.PageSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Feed.MinLoadDuration)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 3, cfg.Feed.CategoryBatchSize, "unset file keys keep defaults")
}

func TestLoad_BadFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))
	t.Setenv("FEEDLIGHT_CONFIG", path)

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Server.Addr)
}
