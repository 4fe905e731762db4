// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file found or error loading it: %v", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
// Only infrastructure settings are checked; thresholds pass through.
func (c *Config) Validate() error {
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 0-65535, 0 disables)", c.MetricsPort)
	}

	switch c.SessionStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid SESSION_STORE: %q (must be %q or %q)", c.SessionStore, StoreMemory, StoreRedis)
	}

	switch c.ScrollDepthMode {
	case "maximum", "instantaneous":
	default:
		return fmt.Errorf("invalid SCROLL_DEPTH_MODE: %q (must be \"maximum\" or \"instantaneous\")", c.ScrollDepthMode)
	}

	if c.SessionStore == StoreRedis && c.RedisMaxRetries < 0 {
		return fmt.Errorf("invalid REDIS_MAX_RETRIES: %d (must be non-negative)", c.RedisMaxRetries)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if c.ScenarioPath == "" {
		return fmt.Errorf("SCENARIO_PATH is required")
	}

	return nil
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
