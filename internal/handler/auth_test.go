// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/model"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	rr := c.postJSON("/login", map[string]string{"username": adminUser, "password": adminPass})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), adminPass)

	var user model.User
	decodeData(t, rr, &user)
	assert.Equal(t, adminUser, user.Username)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Empty(t, user.Password)
	assert.NotEmpty(t, c.cookies, "login sets a session cookie")

	rr = c.get("/admin/api/me")
	require.Equal(t, http.StatusOK, rr.Code)
	decodeData(t, rr, &user)
	assert.Equal(t, adminUser, user.Username)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"wrong password", map[string]string{"username": adminUser, "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": adminPass}, http.StatusUnauthorized},
		{"username is case sensitive", map[string]string{"username": "Admin", "password": adminPass}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": adminUser}, http.StatusUnprocessableEntity},
		{"malformed body", `{"username":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := env.client()

			rr := c.postJSON("/login", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, http.StatusUnauthorized, c.get("/admin/api/me").Code)
		})
	}
}

func TestLogin_LocksAccount(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	for range 3 {
		rr := c.postJSON("/login", map[string]string{"username": editorUser, "password": "wrong"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	rr := c.postJSON("/login", map[string]string{"username": editorUser, "password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "account_locked", errorCode(t, rr))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// Other accounts are unaffected
	env.loggedIn(adminUser, adminPass)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(adminUser, adminPass)

	rr := c.postJSON("/logout", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, http.StatusUnauthorized, c.get("/admin/api/me").Code)
}

func TestAdminAccess(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		path     string
		want     int
	}{
		{"anonymous dashboard", "", "", "/admin/api/dashboard", http.StatusUnauthorized},
		{"editor dashboard", editorUser, testPassword, "/admin/api/dashboard", http.StatusOK},
		{"editor users", editorUser, testPassword, "/admin/api/users", http.StatusForbidden},
		{"manager users", managerUser, testPassword, "/admin/api/users", http.StatusForbidden},
		{"manager backup", managerUser, testPassword, "/admin/api/backup", http.StatusForbidden},
		{"admin users", adminUser, adminPass, "/admin/api/users", http.StatusOK},
		{"admin backup", adminUser, adminPass, "/admin/api/backup", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := env.client()
			if tt.username != "" {
				c = env.loggedIn(tt.username, tt.password)
			}

			rr := c.get(tt.path)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestAdminAccess_DeletedUserSession(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(editorUser, testPassword)

	editor, ok := env.store.FindUser(editorUser)
	require.True(t, ok)
	c2 := env.loggedIn(adminUser, adminPass)
	rr := c2.do(http.MethodDelete, "/admin/api/users/"+itoa(editor.ID), nil, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	assert.Equal(t, http.StatusUnauthorized, c.get("/admin/api/dashboard").Code)
}
