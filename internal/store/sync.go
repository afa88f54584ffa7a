// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/olegiv/agrisite/internal/storage"
)

// Listener adopts documents that other instances write to the store's key.
// The last document observed wins; the adopted document is not saved back.
type Listener struct {
	store  *Store
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewListener creates a listener for st's backend.
func NewListener(st *Store, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = st.logger
	}
	return &Listener{store: st, logger: logger}
}

// Start subscribes to the backend and processes changes in the background
// until Stop is called or ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	changes, err := l.store.backend.Watch(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("watching storage: %w", err)
	}

	done := make(chan struct{})
	l.cancel, l.done = cancel, done
	go func() {
		defer close(done)
		for c := range changes {
			l.Handle(c)
		}
	}()

	l.logger.Info("storage sync listener started", "key", l.store.backend.Key())
	return nil
}

// Stop ends the subscription and waits for the processing goroutine.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.logger.Info("storage sync listener stopped")
}

// Handle applies one change. Changes to other keys, cleared values and
// documents that do not parse are ignored.
func (l *Listener) Handle(c storage.Change) bool {
	key := l.store.backend.Key()
	if c.Key != key {
		l.logger.Debug("ignoring change for other key", "key", c.Key)
		return false
	}
	if c.Value == nil {
		l.logger.Debug("ignoring cleared value", "key", key)
		return false
	}

	merged, err := Merge(c.Value, Defaults(), l.store.now())
	if err != nil {
		l.logger.Warn("ignoring unparseable document from another instance", "key", key, "error", err)
		return false
	}

	l.store.adopt(merged)
	l.logger.Debug("adopted document from another instance", "key", key)
	return true
}
