// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage persists the site document as a single serialized value
// under one key and reports writes made by other instances sharing that key.
//
// Backends are interchangeable: an in-process hub for tests, a JSON file
// watched with fsnotify, a SQL key/value table (SQLite or MySQL) and Redis.
package storage

import (
	"context"
	"errors"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "agrisite_data"

// ErrNotFound is returned by Load when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage: backend closed")

// Backend reads and writes the whole document stored under its key.
type Backend interface {
	// Key returns the storage key this backend is bound to.
	Key() string
	// Load returns the stored bytes or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Save overwrites the stored value.
	Save(ctx context.Context, data []byte) error
	// Clear deletes the stored value.
	Clear(ctx context.Context) error
	// Watch streams changes written by other instances until ctx is done.
	// Writes made through this backend are never delivered back to it.
	// Intermediate values may be dropped when the receiver falls behind;
	// the latest value is always delivered.
	Watch(ctx context.Context) (<-chan Change, error)
	// Close releases the backend's resources.
	Close() error
}

// Change is a write observed on a shared key. Value is nil when the key
// was cleared.
type Change struct {
	Key   string
	Value []byte
}

// offer delivers c on a channel with capacity one, replacing any change
// the receiver has not picked up yet. Only one goroutine may offer on ch.
func offer(ch chan Change, c Change) {
	for {
		select {
		case ch <- c:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
