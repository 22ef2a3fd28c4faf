package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  name: godesk-test
  env: production
  timezone: Europe/Istanbul
  default_language: tr
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db.internal
  port: 5432
  name: helpdesk
  search_path: tenant_acme
redis:
  enabled: true
  host: cache.internal
  port: 6380
sla:
  sweep_schedule: "*/1 * * * *"
  rule_cache_ttl: 30s
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	require.NoError(t, LoadFromFile(path))

	cfg := Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "godesk-test", cfg.App.Name)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "Europe/Istanbul", cfg.App.Timezone)
	assert.Equal(t, "tr", cfg.App.DefaultLanguage)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.GetServerAddr())
	assert.Equal(t, "tenant_acme", cfg.Database.SearchPath)
	assert.Equal(t, "cache.internal:6380", cfg.Redis.GetRedisAddr())
	assert.Equal(t, "*/1 * * * *", cfg.SLA.SweepSchedule)
	assert.Equal(t, 30*time.Second, cfg.SLA.RuleCacheTTL)
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: minimal\n"), 0o644))
	require.NoError(t, LoadFromFile(path))

	cfg := Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "Europe/Istanbul", cfg.App.Timezone)
	assert.Equal(t, "tr", cfg.App.DefaultLanguage)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "*/5 * * * *", cfg.SLA.SweepSchedule)
	assert.Equal(t, 5*time.Minute, cfg.SLA.RuleCacheTTL)
	assert.Equal(t, 8*time.Hour, cfg.Auth.JWT.AccessTokenTTL)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadFromFileRejectsMissingFile(t *testing.T) {
	err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
