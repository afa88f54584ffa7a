// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/store"
)

// Account field limits.
const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
)

// UsersHandler handles admin account management.
type UsersHandler struct {
	store *store.Store
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(st *store.Store) *UsersHandler {
	return &UsersHandler{store: st}
}

// List handles GET /admin/api/users.
func (h *UsersHandler) List(w http.ResponseWriter, _ *http.Request) {
	users := h.store.Users()
	for i := range users {
		users[i] = users[i].Public()
	}
	WriteList(w, users)
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (req *createUserRequest) validate() map[string]string {
	errs := make(map[string]string)
	switch n := utf8.RuneCountInString(req.Username); {
	case n < minUsernameLen:
		errs["username"] = "Username must be at least 3 characters"
	case n > maxUsernameLen:
		errs["username"] = "Username must be at most 50 characters"
	case strings.ContainsAny(req.Username, " \t\r\n"):
		errs["username"] = "Username cannot contain spaces"
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		errs["password"] = "Password must be at least 6 characters"
	}
	if !model.IsValidRole(req.Role) {
		errs["role"] = "Role must be admin, manager or editor"
	}
	return errs
}

// Create handles POST /admin/api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if errs := req.validate(); len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	user, err := h.store.AddUser(r.Context(), model.User{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		WriteConflict(w, "Username already exists")
		return
	case err != nil:
		logAndInternalError(w, "failed to create user", "username", req.Username, "error", err)
		return
	}

	slog.Info("user created", "user_id", user.ID, "username", user.Username, "role", user.Role, "created_by", userID(r))
	h.store.Notify("User created", notify.LevelSuccess)
	WriteCreated(w, user.Public())
}

// Delete handles DELETE /admin/api/users/{id}. Admins cannot delete their
// own account.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid user id", nil)
		return
	}

	if current := middleware.GetUser(r); current != nil && current.ID == id {
		WriteBadRequest(w, "You cannot delete your own account", nil)
		return
	}

	err := h.store.DeleteUser(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		WriteNotFound(w, "User not found")
		return
	case err != nil:
		logAndInternalError(w, "failed to delete user", "user_id", id, "error", err)
		return
	}

	slog.Info("user deleted", "user_id", id, "deleted_by", userID(r))
	h.store.Notify("User deleted", notify.LevelSuccess)
	w.WriteHeader(http.StatusNoContent)
}
