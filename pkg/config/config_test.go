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
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 0.7, cfg.ApproveThreshold)
	assert.Equal(t, 0.3, cfg.RejectThreshold)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.ValidationTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MIRAGE_HTTP_PORT", "9090")
	t.Setenv("MIRAGE_MAX_ITERATIONS", "5")
	t.Setenv("MIRAGE_APPROVE_THRESHOLD", "0.8")
	t.Setenv("MIRAGE_CACHE_TTL", "10m")
	t.Setenv("MIRAGE_LLM_URL", "http://llm.internal:8000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 0.8, cfg.ApproveThreshold)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "http://llm.internal:8000", cfg.LLMURL)
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: 7000\nlog_level: debug\n"), 0o600))

	t.Setenv("MIRAGE_CONFIG_FILE", path)
	t.Setenv("MIRAGE_HTTP_PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.HTTPPort, "env overrides the file")
	assert.Equal(t, "debug", cfg.LogLevel, "file overrides the default")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("MIRAGE_HTTP_PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := Default()
	bad.RejectThreshold = 0.9
	assert.Error(t, bad.Validate(), "reject threshold above approve threshold")

	bad = Default()
	bad.LogLevel = "verbose"
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.MaxIterations = 0
	assert.Error(t, bad.Validate())
}
