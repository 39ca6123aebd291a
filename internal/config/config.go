package config

import (
	"encoding/json"
	"fmt"
	"os"

	"sevalink/internal/constants"
	"sevalink/internal/models"
)

var (
	ErrMissingDBPath   = models.ConfigError{Message: "missing database path"}
	ErrMissingProbeURL = models.ConfigError{Message: "missing network probe URL"}
)

// LoadConfig reads, validates and defaults the JSON configuration at path.
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Network.ProbeURL == "" {
		return ErrMissingProbeURL
	}

	if c.Queue.MaxSize < 0 {
		return models.ConfigError{Message: fmt.Sprintf("queue maxSize must not be negative, got %d", c.Queue.MaxSize)}
	}
	for i, d := range c.Queue.RetryDelaysSec {
		if d <= 0 {
			return models.ConfigError{Message: fmt.Sprintf("retry delay %d must be positive, got %d", i, d)}
		}
	}

	if c.Queue.MaxSize == 0 {
		c.Queue.MaxSize = constants.DefaultMaxQueueSize
	}
	if c.Queue.MaxSendAttempts <= 0 {
		c.Queue.MaxSendAttempts = constants.DefaultMaxSendAttempts
	}
	if len(c.Queue.RetryDelaysSec) == 0 {
		c.Queue.RetryDelaysSec = constants.RetryDelaysSec
	}
	if c.Queue.SweepIntervalSec <= 0 {
		c.Queue.SweepIntervalSec = constants.DefaultSweepIntervalSec
	}
	if c.Network.ProbeIntervalSec <= 0 {
		c.Network.ProbeIntervalSec = constants.DefaultProbeIntervalSec
	}
	if c.Network.ProbeTimeoutSec <= 0 {
		c.Network.ProbeTimeoutSec = constants.DefaultProbeTimeoutSec
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if os.Getenv("SEVALINK_ENV") == "production" && c.LogLevel == "debug" {
		return models.ConfigError{Message: "debug logging should not be used in production"}
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if path := os.Getenv("SEVALINK_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if url := os.Getenv("SEVALINK_PROBE_URL"); url != "" {
		c.Network.ProbeURL = url
	}
}
