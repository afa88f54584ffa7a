// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"context"
	"testing"

	"github.com/olegiv/agrisite/internal/storage"
)

func TestTestDB(t *testing.T) {
	db := TestDB(t)

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='site_documents'`).Scan(&name)
	if err != nil {
		t.Fatalf("site_documents table missing: %v", err)
	}

	backend := storage.NewSQL(db, storage.DialectSQLite, storage.SQLOptions{Key: storage.DefaultKey})
	if err := backend.Save(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestTestStore(t *testing.T) {
	st := TestStore(t)
	if len(st.Users()) != 1 {
		t.Errorf("Users() = %d, want the seeded admin only", len(st.Users()))
	}
}
