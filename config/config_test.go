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

	assert.Equal(t, BackendSimulated, cfg.Qwen.Backend)
	assert.Equal(t, 30*time.Second, cfg.Qwen.Timeout)
	assert.Equal(t, time.Second, cfg.Qwen.SimulatedDelay)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qwen.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: "9090"
qwen:
  backend: http
  base_url: http://localhost:8000
  timeout: 5s
log:
  level: debug
`), 0o644)
	require.NoError(t, err)

	t.Setenv("QWEN_MODEL", "qwen2.5-vl")
	t.Setenv("QWEN_SIMULATED_DELAY", "10ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, BackendHTTP, cfg.Qwen.Backend)
	assert.Equal(t, "http://localhost:8000", cfg.Qwen.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Qwen.Timeout)
	assert.Equal(t, 10*time.Millisecond, cfg.Qwen.SimulatedDelay)
	assert.Equal(t, "qwen2.5-vl", cfg.Qwen.Model)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched by the file
	assert.Equal(t, "./static", cfg.Server.StaticDir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("QWEN_BACKEND", "grpc")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown qwen.backend")

	t.Setenv("QWEN_BACKEND", "")
	t.Setenv("QWEN_TIMEOUT", "soon")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QWEN_TIMEOUT")

	t.Setenv("QWEN_TIMEOUT", "0s")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
