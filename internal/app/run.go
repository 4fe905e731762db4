// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Run replays every loaded scenario. When the metrics server is enabled it
// keeps serving until a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	if a.metricsServer != nil {
		if err := a.metricsServer.Start(ctx); err != nil {
			return err
		}
	}

	logrus.Info("application started successfully")

	failed, err := a.replay(ctx)
	if err != nil {
		return err
	}

	if a.metricsServer != nil {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		logrus.Info("shutdown signal received")
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d scenario(s)", ErrScenarioFailed, failed, len(a.scenarios))
	}
	return nil
}

func (a *App) replay(ctx context.Context) (int, error) {
	failed := 0
	for _, sc := range a.scenarios {
		result, err := a.runner.Run(ctx, sc, a.newStore(sc))
		if err != nil {
			return failed, fmt.Errorf("failed to replay scenario %s: %w", sc.Name, err)
		}

		if !result.Passed() {
			failed++
			for _, f := range result.Failures {
				logrus.WithField("scenario", sc.Name).Error(f.String())
			}
			continue
		}
		logrus.WithField("scenario", sc.Name).Info("scenario passed")
	}
	return failed, nil
}

// Shutdown gracefully shuts down all application components.
//
// Components are shut down in reverse dependency order:
// 1. Stop accepting new requests (metrics server)
// 2. Close external connections (Redis)
// 3. Flush telemetry data (OpenTelemetry)
//
// Shutdown errors are logged but don't stop the shutdown sequence.
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			logrus.Errorf("metrics server shutdown error: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}

	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
