package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	original, had := os.LookupEnv(key)
	if value == "" {
		os.Unsetenv(key)
	} else {
		os.Setenv(key, value)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, original)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	withEnv(t, "TRACKFOLIO_DATA_DIR", t.TempDir())
	withEnv(t, "TRACKFOLIO_API_URL", "")
	withEnv(t, "TRACKFOLIO_API_TOKEN", "")
	withEnv(t, "TRACKFOLIO_REQUEST_TIMEOUT", "")
	withEnv(t, "TRACKFOLIO_REFRESH_CRON", "")
	withEnv(t, "LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8090", cfg.APIBaseURL)
	assert.Empty(t, cfg.APIToken)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "@every 5m", cfg.RefreshCron)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_DataDirResolvedToAbsolute(t *testing.T) {
	tmpDir := t.TempDir()
	withEnv(t, "TRACKFOLIO_DATA_DIR", tmpDir)

	cfg, err := Load()
	require.NoError(t, err)

	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, absPath, cfg.DataDir)

	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_EnvOverrides(t *testing.T) {
	withEnv(t, "TRACKFOLIO_DATA_DIR", t.TempDir())
	withEnv(t, "TRACKFOLIO_API_URL", "https://api.example.com")
	withEnv(t, "TRACKFOLIO_API_TOKEN", "secret")
	withEnv(t, "TRACKFOLIO_REQUEST_TIMEOUT", "5s")
	withEnv(t, "LOG_LEVEL", "debug")
	withEnv(t, "LOG_PRETTY", "true")
	withEnv(t, "STUB_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "secret", cfg.APIToken)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Pretty)
	assert.Equal(t, 9999, cfg.Port)
}

func TestLoad_MalformedValuesFallBackToDefaults(t *testing.T) {
	withEnv(t, "TRACKFOLIO_DATA_DIR", t.TempDir())
	withEnv(t, "TRACKFOLIO_REQUEST_TIMEOUT", "not-a-duration")
	withEnv(t, "STUB_PORT", "not-a-number")
	withEnv(t, "LOG_PRETTY", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8090, cfg.Port)
	assert.False(t, cfg.Pretty)
}
