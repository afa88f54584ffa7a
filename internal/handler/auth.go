// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/store"
)

// AuthHandler handles admin login and logout.
type AuthHandler struct {
	store           *store.Store
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		store:           st,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{"username": "Username and password are required"})
		return
	}

	clientIP := middleware.ClientIP(r)

	if remaining, locked := h.loginProtection.Locked(username); locked {
		slog.Warn("login attempt on locked account", "username", username, "ip", clientIP, "remaining", remaining)
		w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())+1))
		WriteError(w, http.StatusTooManyRequests, "account_locked", "Too many failed attempts. Please try again later.", nil)
		return
	}

	user, ok := h.store.FindUser(username)
	if !ok || subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Password)) != 1 {
		_, locked := h.loginProtection.Fail(username)
		slog.Warn("failed login attempt", "username", username, "ip", clientIP, "locked", locked)
		WriteUnauthorized(w, "Invalid username or password")
		return
	}

	// Renew the token on privilege change to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)
	h.loginProtection.Succeed(username)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username, "ip", clientIP)
	WriteSuccess(w, user.Public(), nil)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, "failed to destroy session", "error", err)
		return
	}
	if userID != 0 {
		slog.Info("user logged out", "user_id", userID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /admin/api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, user.Public(), nil)
}
