// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-exit-intent/pkg/session"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// This is a manual integration test for the Redis session store
// Run this with: go run -tags integration test_redis_integration.go
// Requires: Redis running on localhost:6379

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Starting Redis integration test...")

	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer client.Close()

	sessionID := fmt.Sprintf("test-session-%d", time.Now().Unix())
	logrus.Infof("Testing with session ID: %s", sessionID)

	store := session.NewRedisStore(client, sessionID, session.RedisStoreConfig{TTL: time.Minute})

	// Test 1: Fresh session has no flag
	logrus.Infof("\n=== Test 1: Load flag for new session ===")
	flag := session.NewFlag(store, session.DefaultFlagKey, logrus.StandardLogger())
	shown, err := flag.Load(ctx)
	if err != nil {
		logrus.Fatalf("Failed to load flag: %v", err)
	}
	logrus.Infof("Shown: %v (expected false)", shown)

	// Test 2: Commit the flag
	logrus.Infof("\n=== Test 2: Commit flag ===")
	if err := flag.Commit(ctx); err != nil {
		logrus.Fatalf("Failed to commit flag: %v", err)
	}

	// Test 3: A new page load in the same session sees the flag
	logrus.Infof("\n=== Test 3: Reload flag in same session ===")
	reloaded := session.NewFlag(store, session.DefaultFlagKey, logrus.StandardLogger())
	shown, err = reloaded.Load(ctx)
	if err != nil {
		logrus.Fatalf("Failed to reload flag: %v", err)
	}
	logrus.Infof("Shown: %v (expected true)", shown)

	// Test 4: TTL is applied
	ttl, err := client.TTL(ctx, session.KeyPrefix+sessionID+":"+session.DefaultFlagKey).Result()
	if err != nil {
		logrus.Fatalf("Failed to read TTL: %v", err)
	}
	logrus.Infof("TTL: %v", ttl)

	logrus.Infof("\n=== All tests passed! ===")
}
