package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshpanel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
api_url: http://sim:9000
timeout: 3s
listen: ":7000"
log_level: debug
logs_limit: 20
ledger:
  backend: redis
  redis_addr: cache:6379
  redis_db: 2
  prefix: "test:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://sim:9000", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.LogsLimit)
	assert.Equal(t, LedgerRedis, cfg.Ledger.Backend)
	assert.Equal(t, "cache:6379", cfg.Ledger.RedisAddr)
	assert.Equal(t, 2, cfg.Ledger.RedisDB)
	assert.Equal(t, "test:", cfg.Ledger.Prefix)
	// untouched keys keep their defaults
	assert.Equal(t, ".meshpanel/nodes", cfg.Ledger.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api_url: http://from-file\nlisten: \":1\"\n")
	t.Setenv(EnvAPIURL, "http://from-env")
	t.Setenv(EnvListen, ":2")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.APIURL)
	assert.Equal(t, ":2", cfg.Listen)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "api_url: [unterminated"},
		{"empty api url", "api_url: \"\""},
		{"zero timeout", "timeout: 0s"},
		{"negative logs limit", "logs_limit: -1"},
		{"unknown ledger", "ledger:\n  backend: etcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
