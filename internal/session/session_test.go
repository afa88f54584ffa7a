// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/agrisite/internal/testutil"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	// The migrations create the sessions table sqlite3store expects.
	return testutil.TestDB(t)
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, true)

	if sm == nil {
		t.Fatal("expected session manager to be non-nil")
	}
}

func TestNew_DevMode(t *testing.T) {
	db := setupTestDB(t)

	// Development mode
	sm := New(db, true)

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name == "__Host-session" {
		t.Error("expected default cookie name in dev mode")
	}
}

func TestNew_ProductionMode(t *testing.T) {
	db := setupTestDB(t)

	// Production mode
	sm := New(db, false)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != "__Host-session" {
		t.Errorf("expected __Host-session cookie name, got %q", sm.Cookie.Name)
	}
	if sm.Cookie.Path != "/" {
		t.Errorf("expected Cookie.Path = '/', got %q", sm.Cookie.Path)
	}
}

func TestNew_SessionSettings(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, true)

	// Check session lifetime
	if sm.Lifetime != 24*time.Hour {
		t.Errorf("Lifetime = %v, want 24h", sm.Lifetime)
	}

	// Check cookie settings
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite = Lax, got %v", sm.Cookie.SameSite)
	}
}

func TestNew_BrowserSessionCookie(t *testing.T) {
	sm := New(nil, true)
	if sm.Cookie.Persist {
		t.Fatal("expected Cookie.Persist = false")
	}

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NewVisits(sm).MarkVisited(r.Context(), "HOME")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one session cookie, got %d", len(cookies))
	}
	if !cookies[0].Expires.IsZero() || cookies[0].MaxAge != 0 {
		t.Errorf("expected cookie without Expires or Max-Age, got Expires=%v MaxAge=%d",
			cookies[0].Expires, cookies[0].MaxAge)
	}
}

func TestNew_StoreInitialized(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, true)

	if sm.Store == nil {
		t.Error("expected Store to be initialized")
	}
}

func TestNew_MemoryStoreWithoutDB(t *testing.T) {
	sm := New(nil, true)

	if _, ok := sm.Store.(*memstore.MemStore); !ok {
		t.Errorf("expected memstore, got %T", sm.Store)
	}
}

func TestVisits_OncePerSession(t *testing.T) {
	sm := New(setupTestDB(t), true)
	visits := NewVisits(sm)

	var first, second, other bool
	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/first":
			first = visits.MarkVisited(r.Context(), "HOME")
		case "/second":
			second = visits.MarkVisited(r.Context(), "HOME")
			other = visits.MarkVisited(r.Context(), "BLOG")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/first", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/second", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !first {
		t.Error("first visit should be counted")
	}
	if second {
		t.Error("second visit in the same session should not be counted")
	}
	if !other {
		t.Error("visit to another page should be counted")
	}

	// A new session counts again.
	var fresh bool
	handler = sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fresh = visits.MarkVisited(r.Context(), "HOME")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !fresh {
		t.Error("visit in a new session should be counted")
	}
}
