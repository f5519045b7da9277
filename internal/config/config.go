// Package config loads daemon configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime configuration for the sync daemon.
type Config struct {
	DataDir       string `env:"FIELDSYNC_DATA_DIR" envDefault:"./data"`
	RemoteBaseURL string `env:"FIELDSYNC_REMOTE_URL,notEmpty"`
	HTTPTimeout   int    `env:"FIELDSYNC_HTTP_TIMEOUT_SEC" envDefault:"15"`
	SyncInterval  int    `env:"FIELDSYNC_SYNC_INTERVAL_SEC" envDefault:"900"`
	LogLevel      string `env:"FIELDSYNC_LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// HTTPTimeoutDuration returns the per-request timeout as a Duration.
func (c Config) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// SyncIntervalDuration returns the periodic wake interval as a Duration.
func (c Config) SyncIntervalDuration() time.Duration {
	return time.Duration(c.SyncInterval) * time.Second
}
