package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "localhost:6379")

	dir := t.TempDir()
	path := writeConfig(t, `
server:
  port: 9000
  cors_origins:
    - "http://localhost:5173"
database:
  path: "`+filepath.Join(dir, "data", "test.db")+`"
redis:
  address: "${TEST_REDIS_ADDR}"
  cache_ttl_seconds: 30
reminders:
  enabled: true
  check_interval_minutes: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, 5*time.Minute, cfg.ReminderCheckInterval())

	// Load creates the database directory.
	_, err = os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(writeConfig(t, "server: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/turnero.db", cfg.Database.Path)
	assert.Zero(t, cfg.CacheTTL())
	assert.Equal(t, 15*time.Minute, cfg.ReminderCheckInterval())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadUnknownKeysTolerated(t *testing.T) {
	_, err := Load(writeConfig(t, "bogus: true\nserver:\n  port: 1\n"))
	assert.NoError(t, err)
}
