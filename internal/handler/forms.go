// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/render"
	"github.com/olegiv/agrisite/internal/store"
)

// Contact form field limits, in runes.
const (
	maxNameRunes    = 100
	maxSubjectRunes = 200
	maxMessageRunes = 5000
)

// FormsHandler handles the public newsletter and contact forms and the
// notification feed.
type FormsHandler struct {
	store    *store.Store
	notifier *notify.Queue
}

// NewFormsHandler creates a new forms handler.
func NewFormsHandler(st *store.Store, notifier *notify.Queue) *FormsHandler {
	return &FormsHandler{store: st, notifier: notifier}
}

// isValidEmail checks if the email is a bare address.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// SubscribeResult reports whether the address was new.
type SubscribeResult struct {
	Email      string `json:"email"`
	Subscribed bool   `json:"subscribed"`
}

// Subscribe handles POST /api/subscribe.
func (h *FormsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	email := strings.TrimSpace(req.Email)
	if !isValidEmail(email) {
		WriteValidationError(w, map[string]string{"email": "Please enter a valid email address"})
		return
	}

	added, err := h.store.AddSubscriber(r.Context(), email)
	if err != nil {
		logAndInternalError(w, "failed to save subscriber", "error", err)
		return
	}
	if added {
		h.store.Notify("Thanks for subscribing!", notify.LevelSuccess)
	} else {
		h.store.Notify("You are already subscribed", notify.LevelInfo)
	}
	WriteSuccess(w, SubscribeResult{Email: email, Subscribed: added}, nil)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (req *contactRequest) clean() {
	req.Name = render.PlainText(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = render.PlainText(req.Phone)
	req.Subject = render.PlainText(req.Subject)
	req.Message = render.PlainText(req.Message)
}

func (req *contactRequest) validate() map[string]string {
	errs := make(map[string]string)
	switch n := utf8.RuneCountInString(req.Name); {
	case n == 0:
		errs["name"] = "Name is required"
	case n > maxNameRunes:
		errs["name"] = "Name is too long"
	}
	if !isValidEmail(req.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	if utf8.RuneCountInString(req.Subject) > maxSubjectRunes {
		errs["subject"] = "Subject is too long"
	}
	switch n := utf8.RuneCountInString(req.Message); {
	case n == 0:
		errs["message"] = "Message is required"
	case n > maxMessageRunes:
		errs["message"] = "Message is too long"
	}
	return errs
}

// Contact handles POST /api/contact. Text fields are stripped of markup
// before they are stored.
func (h *FormsHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	req.clean()
	if errs := req.validate(); len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	msg, err := h.store.AddContactMessage(r.Context(), model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		logAndInternalError(w, "failed to save contact message", "error", err)
		return
	}
	h.store.Notify("Message sent! We will get back to you soon.", notify.LevelSuccess)
	WriteCreated(w, msg)
}

// Notifications handles GET /api/notifications.
func (h *FormsHandler) Notifications(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.notifier.List())
}

// DismissNotification handles DELETE /api/notifications/{id}.
func (h *FormsHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid notification id", nil)
		return
	}
	if !h.notifier.Dismiss(id) {
		WriteNotFound(w, "Notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
