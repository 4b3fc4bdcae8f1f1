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

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
environment: production
ingest:
  batch_size: 250
  session_ttl_hours: 6
  max_file_size_mb: 10
  allowed_statuses: [not_contacted, contacted, ignored]
classify:
  enabled: true
  base_url: http://classifier:8000
  timeout_seconds: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.GetHost())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250, cfg.Ingest.BatchSize)
	assert.Equal(t, 6*time.Hour, cfg.Ingest.SessionTTL())
	assert.Equal(t, int64(10*1024*1024), cfg.Ingest.MaxFileSize())
	assert.Contains(t, cfg.Ingest.AllowedStatuses, "ignored")
	assert.True(t, cfg.Classify.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Classify.Timeout())
}

func TestLoadMissingFileYieldsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.GetHost())
	assert.Equal(t, 24*time.Hour, cfg.Ingest.SessionTTL())
	assert.Equal(t, int64(50*1024*1024), cfg.Ingest.MaxFileSize())
	assert.Equal(t, 30*time.Second, cfg.Classify.Timeout())
}

func TestTablePrefix(t *testing.T) {
	cases := map[string]string{
		"production":  "",
		"prod":        "",
		"development": "dev_",
		"staging":     "dev_",
		"":            "dev_",
	}
	for env, want := range cases {
		cfg := &Config{Environment: env}
		assert.Equal(t, want, cfg.TablePrefix(), "environment %q", env)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db/app")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("CLASSIFY_URL", "http://classifier:8000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "3000")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db/app", cfg.Database.URL)
	assert.Equal(t, "redis://cache:6379", cfg.Redis.URL)
	assert.Equal(t, "http://classifier:8000", cfg.Classify.BaseURL)
	assert.True(t, cfg.Classify.Enabled, "CLASSIFY_URL implies enabled")
	assert.Equal(t, "", cfg.TablePrefix())
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadFromEnvIgnoresBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Server.Port)
}
