// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is how long a session's keys live after they are written.
	DefaultTTL = 30 * time.Minute
	// KeyPrefix is the prefix for all session keys.
	KeyPrefix = "exit_intent:session:"
)

// RedisStore is a Store backed by Redis. Keys are namespaced by session ID
// and expire after TTL, which ends the session.
type RedisStore struct {
	client    redis.UniversalClient
	sessionID string
	cfg       RedisStoreConfig
}

// RedisStoreConfig configures a RedisStore. Zero values select defaults.
type RedisStoreConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// NewRedisStore creates a Redis-backed store for one session.
func NewRedisStore(client redis.UniversalClient, sessionID string, cfg RedisStoreConfig) *RedisStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = KeyPrefix
	}
	return &RedisStore{
		client:    client,
		sessionID: sessionID,
		cfg:       cfg,
	}
}

// makeKey creates a Redis key for a session-scoped entry
func (r *RedisStore) makeKey(key string) string {
	return fmt.Sprintf("%s%s:%s", r.cfg.KeyPrefix, r.sessionID, key)
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := r.client.Get(ctx, r.makeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		logrus.Errorf("failed to get session key %s for session %s: %v", key, r.sessionID, err)
		return "", false, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, key, err)
	}
	return data, true, nil
}

// Set implements Store.
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.makeKey(key), value, r.cfg.TTL).Err(); err != nil {
		logrus.Errorf("failed to set session key %s for session %s: %v", key, r.sessionID, err)
		return fmt.Errorf("%w: set %s: %v", ErrStoreUnavailable, key, err)
	}

	logrus.Debugf("set session key %s for session %s with TTL %v", key, r.sessionID, r.cfg.TTL)
	return nil
}
