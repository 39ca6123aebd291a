package config

import (
	"os"
	"path/filepath"
	"testing"

	"sevalink/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoadConfigValid(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/sevalink.db"},
		"queue": {
			"maxSize": 500,
			"maxSendAttempts": 5,
			"retryDelaysSec": [1, 2, 4],
			"sweepIntervalSec": 2
		},
		"network": {
			"probeUrl": "https://api.example.com/health",
			"probeIntervalSec": 15,
			"probeTimeoutSec": 3
		},
		"logLevel": "warn"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sevalink.db", cfg.Database.Path)
	assert.Equal(t, 500, cfg.Queue.MaxSize)
	assert.Equal(t, 5, cfg.Queue.MaxSendAttempts)
	assert.Equal(t, []int{1, 2, 4}, cfg.Queue.RetryDelaysSec)
	assert.Equal(t, 2, cfg.Queue.SweepIntervalSec)
	assert.Equal(t, "https://api.example.com/health", cfg.Network.ProbeURL)
	assert.Equal(t, 15, cfg.Network.ProbeIntervalSec)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/sevalink.db"},
		"network": {"probeUrl": "https://api.example.com/health"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultMaxQueueSize, cfg.Queue.MaxSize)
	assert.Equal(t, constants.DefaultMaxSendAttempts, cfg.Queue.MaxSendAttempts)
	assert.Equal(t, constants.RetryDelaysSec, cfg.Queue.RetryDelaysSec)
	assert.Equal(t, constants.DefaultSweepIntervalSec, cfg.Queue.SweepIntervalSec)
	assert.Equal(t, constants.DefaultProbeIntervalSec, cfg.Network.ProbeIntervalSec)
	assert.Equal(t, constants.DefaultProbeTimeoutSec, cfg.Network.ProbeTimeoutSec)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigMissingDBPath(t *testing.T) {
	path := writeConfigFile(t, `{
		"network": {"probeUrl": "https://api.example.com/health"}
	}`)

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrMissingDBPath)
}

func TestLoadConfigMissingProbeURL(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/sevalink.db"}
	}`)

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrMissingProbeURL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRejectsNegativeMaxSize(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/sevalink.db"},
		"network": {"probeUrl": "https://api.example.com/health"},
		"queue": {"maxSize": -1}
	}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxSize")
}

func TestLoadConfigRejectsNonPositiveRetryDelay(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/sevalink.db"},
		"network": {"probeUrl": "https://api.example.com/health"},
		"queue": {"retryDelaysSec": [1, 0, 5]}
	}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry delay")
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("SEVALINK_DB_PATH", "/data/override.db")
	t.Setenv("SEVALINK_PROBE_URL", "https://override.example.com/ping")

	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/sevalink.db"},
		"network": {"probeUrl": "https://api.example.com/health"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/override.db", cfg.Database.Path)
	assert.Equal(t, "https://override.example.com/ping", cfg.Network.ProbeURL)
}

func TestLoadConfigProductionForbidsDebugLogging(t *testing.T) {
	t.Setenv("SEVALINK_ENV", "production")

	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/sevalink.db"},
		"network": {"probeUrl": "https://api.example.com/health"},
		"logLevel": "debug"
	}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug logging")
}
