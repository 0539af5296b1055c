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
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 32, cfg.SendBuffer)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 120, cfg.EventRateLimit)
	assert.Equal(t, "draftroom", cfg.TokenIssuer)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	content := []byte("mode: debug\nport: 9999\nlog_level: warn\ntoken_secret: s3cret\nallowed_origins:\n  - https://example.com\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), content, 0o644))
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins)
	// Unset keys keep their defaults.
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
}
