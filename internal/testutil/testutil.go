// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the agrisite project.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/olegiv/agrisite/internal/storage"
	"github.com/olegiv/agrisite/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database with the storage migrations
// applied. It is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "agrisite-test.db")
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(db, storage.DialectSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// TestStore opens a store on a fresh in-memory backend with the seeded
// defaults. Extra options are applied after a silent logger.
func TestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()

	opts = append([]store.Option{store.WithLogger(TestLoggerSilent())}, opts...)
	st, err := store.Open(context.Background(), storage.NewMemory(storage.DefaultKey), opts...)
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	return st
}
