// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoadSaveClear(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	f, err := NewFile(dir, "doc", nil)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	_, err = f.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.Save(ctx, []byte(`{"a":1}`)))
	assert.FileExists(t, filepath.Join(dir, "doc.json"))

	got, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, f.Clear(ctx))
	require.NoError(t, f.Clear(ctx))
	_, err = f.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileWatchSeesOtherInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()

	a, err := NewFile(dir, "doc", nil)
	require.NoError(t, err)
	b, err := NewFile(dir, "doc", nil)
	require.NoError(t, err)

	changes, err := b.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Save(ctx, []byte(`{"home":"x"}`)))
	c := receive(t, changes)
	assert.Equal(t, "doc", c.Key)
	assert.Equal(t, `{"home":"x"}`, string(c.Value))
}

func TestFileWatchSkipsOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := NewFile(t.TempDir(), "doc", nil)
	require.NoError(t, err)

	changes, err := f.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, f.Save(ctx, []byte(`{"a":1}`)))
	assertNoChange(t, changes, 200*time.Millisecond)
}

func TestFileWatchReportsOtherKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()

	f, err := NewFile(dir, "doc", nil)
	require.NoError(t, err)
	changes, err := f.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`1`), 0o600))

	c := receive(t, changes)
	assert.Equal(t, "other", c.Key)
}
