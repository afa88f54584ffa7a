// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/storage"
)

var testNow = time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// newTestStore opens a store on a fresh in-memory backend with a fixed clock.
func newTestStore(t *testing.T, opts ...Option) (*Store, *storage.Memory) {
	t.Helper()
	backend := storage.NewMemory(storage.DefaultKey)
	t.Cleanup(func() { _ = backend.Close() })

	st, err := Open(context.Background(), backend, append([]Option{WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)
	return st, backend
}

// countingBackend counts saves and can be told to fail them.
type countingBackend struct {
	storage.Backend
	saves atomic.Int32
	fail  atomic.Bool
}

var errSaveFailed = errors.New("disk full")

func (b *countingBackend) Save(ctx context.Context, data []byte) error {
	b.saves.Add(1)
	if b.fail.Load() {
		return errSaveFailed
	}
	return b.Backend.Save(ctx, data)
}
