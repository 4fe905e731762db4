// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultFlagKey is the storage key of the exit-intent one-shot flag.
const DefaultFlagKey = "exit-intent-shown"

// Flag is a one-shot boolean persisted in a session Store. Once true it
// stays true for the lifetime of the Flag. Store failures never change the
// in-memory value; they are logged and returned for reporting only.
type Flag struct {
	store  Store
	key    string
	logger logrus.FieldLogger

	mu        sync.Mutex
	value     bool
	loaded    bool
	persisted bool
}

// NewFlag creates a flag stored under key. A nil store behaves as an
// UnavailableStore and a nil logger uses the logrus standard logger.
func NewFlag(store Store, key string, logger logrus.FieldLogger) *Flag {
	if store == nil {
		store = UnavailableStore{}
	}
	if key == "" {
		key = DefaultFlagKey
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Flag{
		store:  store,
		key:    key,
		logger: logger.WithField("key", key),
	}
}

// Load reads the persisted value and reconciles it with the in-memory one.
// Absent, unreadable and unparsable values read as false. A Commit that
// happened before Load is never undone.
func (f *Flag) Load(ctx context.Context) (bool, error) {
	raw, ok, err := f.store.Get(ctx, f.key)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = true

	if err != nil {
		f.logger.WithError(err).Warn("failed to load session flag, using in-memory value")
		return f.value, fmt.Errorf("failed to load flag %s: %w", f.key, err)
	}
	if !ok || raw == "" {
		return f.value, nil
	}

	var stored bool
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		f.logger.WithError(err).Warnf("ignoring unparsable session flag value %q", raw)
		return f.value, fmt.Errorf("failed to parse flag %s: %w", f.key, err)
	}
	if stored {
		f.value = true
		f.persisted = true
	}
	return f.value, nil
}

// Mark sets the in-memory value to true without touching the store.
func (f *Flag) Mark() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = true
}

// Commit sets the flag to true and persists it. Committing an already
// persisted flag is a no-op.
func (f *Flag) Commit(ctx context.Context) error {
	f.mu.Lock()
	f.value = true
	if f.persisted {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	data, _ := json.Marshal(true)
	if err := f.store.Set(ctx, f.key, string(data)); err != nil {
		f.logger.WithError(err).Error("failed to persist session flag, keeping in-memory value")
		return fmt.Errorf("failed to commit flag %s: %w", f.key, err)
	}

	f.mu.Lock()
	f.persisted = true
	f.mu.Unlock()
	return nil
}

// Value returns the current in-memory value.
func (f *Flag) Value() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Loaded reports whether Load has completed at least once.
func (f *Flag) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}
