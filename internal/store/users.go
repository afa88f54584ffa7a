// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"

	"github.com/olegiv/agrisite/internal/model"
)

var (
	// ErrUsernameTaken is returned when another account already uses the username.
	ErrUsernameTaken = errors.New("store: username already exists")
	// ErrUserNotFound is returned when no account has the requested id.
	ErrUserNotFound = errors.New("store: user not found")
)

// AddUser appends an account with a fresh id. Usernames are unique and
// compared exactly.
func (s *Store) AddUser(ctx context.Context, u model.User) (model.User, error) {
	taken := false
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		for _, existing := range d.Users {
			if existing.Username == u.Username {
				taken = true
				return false
			}
		}
		u.ID = s.ids.Next()
		d.Users = append(d.Users, u)
		return true
	})
	if taken {
		return model.User{}, ErrUsernameTaken
	}
	return u, err
}

// DeleteUser removes the account with the given id.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	found := false
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		for i, u := range d.Users {
			if u.ID == id {
				d.Users = append(d.Users[:i:i], d.Users[i+1:]...)
				found = true
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}
