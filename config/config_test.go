package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.ListenAddr)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, 12, cfg.Listing.ItemsPerPage)
	assert.Equal(t, 9, cfg.Listing.GroupItemsPerPage)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Sharing.PublicEnabled)
	assert.Equal(t, 5432, cfg.Postgres.Port)
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte(`
app:
  env: production
listing:
  items_per_page: 20
fetch:
  timeout: 3s
  failure_marker: "<p>nope</p>"
sharing:
  public_enabled: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("SHARE_PUBLIC", "false")
	t.Setenv("LISTING_GROUP_ITEMS_PER_PAGE", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, 20, cfg.Listing.ItemsPerPage)
	assert.Equal(t, 4, cfg.Listing.GroupItemsPerPage)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "<p>nope</p>", cfg.Fetch.FailureMarker)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.False(t, cfg.Sharing.PublicEnabled)
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("listing:\n  items_per_page: 0\n"), 0o600))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadPoolDuration(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("postgres:\n  max_conn_lifetime: soon\n"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.max_conn_lifetime")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_HOST=cache.internal\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("REDIS_HOST") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
}
