package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "General Questions", cfg.GeneralSelector)
	assert.Equal(t, 2, cfg.TopN)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8081", "http://localhost:19006"}, cfg.CORSOrigins())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("TOP_N", "3")
	t.Setenv("CORS_ORIGINS_ONLINE", "https://a.example, https://b.example")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ModeOnline, cfg.Mode)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 3, cfg.TopN)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestLoadFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neurocare.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":7000\"\ngeneral_selector: Everything\nsite_id: clinic-1\n"), 0o644))
	t.Setenv("SITE_ID", "clinic-2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "Everything", cfg.GeneralSelector)
	assert.Equal(t, "clinic-2", cfg.SiteID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestUnknownModeFallsBackToOffline(t *testing.T) {
	t.Setenv("MODE", "staging")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, cfg.Mode)
}
