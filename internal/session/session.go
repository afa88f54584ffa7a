// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures cookie sessions and keeps per-session page
// visit markers.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// Session keys.
const (
	KeyUserID     = "user_id"
	visitedPrefix = "visited:"
)

// New creates a session manager. Sessions are stored in the SQLite
// database when one is given, in memory otherwise.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if db != nil {
		sm.Store = sqlite3store.New(db)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	// Visit markers and logins end when the browser session does.
	sm.Cookie.Persist = false
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// Visits tracks visited pages in the request's session. The context passed
// to MarkVisited must come from a request served through LoadAndSave.
type Visits struct {
	sm *scs.SessionManager
}

// NewVisits returns a visit tracker backed by sm.
func NewVisits(sm *scs.SessionManager) *Visits {
	return &Visits{sm: sm}
}

// MarkVisited records a visit to pageID and reports whether it is the first
// one in this session.
func (v *Visits) MarkVisited(ctx context.Context, pageID string) bool {
	key := visitedPrefix + pageID
	if v.sm.GetBool(ctx, key) {
		return false
	}
	v.sm.Put(ctx, key, true)
	return true
}
