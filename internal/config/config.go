// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// ============================================================
// DEVELOPER: Threshold values are passed to the controller as-is.
// ============================================================
// MIN_TIME_ON_PAGE, MIN_SCROLL_DEPTH and TOP_THRESHOLD are not
// range-checked. An unreachable value (e.g. MIN_SCROLL_DEPTH=1.5)
// silently keeps the offer from ever appearing.
// ============================================================
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	MetricsPort int    `env:"METRICS_PORT" envDefault:"0"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"ExitIntentReplay"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Exit-intent thresholds
	// ============================================================
	MinTimeOnPage   time.Duration `env:"MIN_TIME_ON_PAGE" envDefault:"10s"`
	MinScrollDepth  float64       `env:"MIN_SCROLL_DEPTH" envDefault:"0.3"`
	TopThreshold    float64       `env:"TOP_THRESHOLD" envDefault:"10"`
	ScrollDepthMode string        `env:"SCROLL_DEPTH_MODE" envDefault:"instantaneous"`

	// ============================================================
	// Session store configuration
	// ============================================================
	SessionStore string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionID    string        `env:"SESSION_ID"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	// ============================================================
	// Redis configuration (SESSION_STORE=redis)
	// ============================================================
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`

	// ============================================================
	// Scenario configuration
	// ============================================================
	ScenarioPath string `env:"SCENARIO_PATH" envDefault:"config/scenarios"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled        bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OtelZipkinEndpoint string `env:"OTEL_EXPORTER_ZIPKIN_ENDPOINT"`
}

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)
