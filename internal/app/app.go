// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AccelByte/extend-exit-intent/internal/config"
	"github.com/AccelByte/extend-exit-intent/internal/server"
	"github.com/AccelByte/extend-exit-intent/pkg/common"
	"github.com/AccelByte/extend-exit-intent/pkg/engagement"
	"github.com/AccelByte/extend-exit-intent/pkg/exitintent"
	"github.com/AccelByte/extend-exit-intent/pkg/metrics"
	"github.com/AccelByte/extend-exit-intent/pkg/scenario"
	"github.com/AccelByte/extend-exit-intent/pkg/session"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ErrScenarioFailed indicates that at least one replayed scenario had a
// failing expectation.
var ErrScenarioFailed = errors.New("scenario expectations failed")

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	registry          *prometheus.Registry
	runner            *scenario.Runner
	scenarios         []*scenario.Scenario
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// Components are initialized in dependency order:
// 1. Redis (only when SESSION_STORE=redis)
// 2. Scenarios (YAML files)
// 3. Metrics registry and exit-intent recorder
// 4. Scenario runner with threshold configuration
// 5. Metrics server (only when METRICS_PORT is set)
// 6. Telemetry (only when OTEL_ENABLED is set)
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg, registry: prometheus.NewRegistry()}

	if cfg.SessionStore == config.StoreRedis {
		if err := app.initRedis(ctx); err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
	}

	scenarios, err := loadScenarios(cfg.ScenarioPath)
	if err != nil {
		return nil, err
	}
	app.scenarios = scenarios
	logrus.Infof("loaded %d scenario(s) from %s", len(scenarios), cfg.ScenarioPath)

	recorder, err := metrics.NewRecorder(app.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register exit intent metrics: %w", err)
	}

	app.runner = scenario.NewRunner(recorder, logrus.StandardLogger(),
		exitintent.WithMinTimeOnPage(cfg.MinTimeOnPage),
		exitintent.WithMinScrollDepth(cfg.MinScrollDepth),
		exitintent.WithTopThreshold(cfg.TopThreshold),
		exitintent.WithScrollDepthMode(engagement.ParseMode(cfg.ScrollDepthMode)),
	)

	if cfg.MetricsPort > 0 {
		app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", app.registry)
		if err := app.metricsServer.Setup(); err != nil {
			return nil, fmt.Errorf("failed to setup metrics server: %w", err)
		}
	}

	if cfg.OtelEnabled {
		shutdown, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, cfg.OtelZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdown
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		backoff.WithContext(maxRetries, ctx),
	)

	if err != nil {
		_ = client.Close()
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}

// newStore returns the session store one replay runs against.
func (a *App) newStore(sc *scenario.Scenario) session.Store {
	if a.redisClient == nil {
		return session.NewMemoryStore()
	}

	sessionID := a.cfg.SessionID
	if sessionID == "" {
		sessionID = common.MakeSessionID(sc.Name)
	}
	return session.NewRedisStore(a.redisClient, sessionID, session.RedisStoreConfig{TTL: a.cfg.SessionTTL})
}

func loadScenarios(path string) ([]*scenario.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path %s: %w", path, err)
	}

	if info.IsDir() {
		scenarios, err := scenario.LoadDir(path)
		if err != nil {
			return nil, err
		}
		if len(scenarios) == 0 {
			return nil, fmt.Errorf("no scenarios found in %s", path)
		}
		return scenarios, nil
	}

	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{sc}, nil
}
