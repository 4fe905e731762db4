// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package session provides session-scoped persistence for the exit-intent
// engine: a small key-value Store contract with in-memory and Redis backends,
// and Flag, a one-shot boolean persisted through a Store.
package session

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable indicates the backing store does not exist in the
	// current environment or refused the operation.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Store is a session-scoped key-value store. Values written in one session
// are visible across page loads of the same session and are gone once the
// session ends.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
}

// UnavailableStore is a Store that fails every operation. It models a host
// where session storage is disabled or absent.
type UnavailableStore struct{}

// Get implements Store.
func (UnavailableStore) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrStoreUnavailable
}

// Set implements Store.
func (UnavailableStore) Set(context.Context, string, string) error {
	return ErrStoreUnavailable
}
