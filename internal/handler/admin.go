// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/agrisite/internal/logging"
	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/store"
	"github.com/olegiv/agrisite/internal/weather"
)

// dashboardEvents is the number of log events shown on the dashboard.
const dashboardEvents = 20

// maxSectionBody caps section update payloads.
const maxSectionBody = 5 << 20

// AdminHandler handles the admin dashboard and whole-section edits.
type AdminHandler struct {
	store  *store.Store
	events *logging.EventLog
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(st *store.Store, events *logging.EventLog) *AdminHandler {
	return &AdminHandler{store: st, events: events}
}

// DashboardCounts summarizes the size of each collection.
type DashboardCounts struct {
	Posts           int `json:"posts"`
	PublishedPosts  int `json:"publishedPosts"`
	DraftPosts      int `json:"draftPosts"`
	TrashedPosts    int `json:"trashedPosts"`
	Subscribers     int `json:"subscribers"`
	ContactMessages int `json:"contactMessages"`
	ChatSessions    int `json:"chatSessions"`
	SoilAnalyses    int `json:"soilAnalyses"`
	Users           int `json:"users"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	Traffic     model.TrafficStats `json:"traffic"`
	TotalVisits int64              `json:"totalVisits"`
	Weather     weather.Reading    `json:"weather"`
	Counts      DashboardCounts    `json:"counts"`
	Events      []logging.Event    `json:"events"`
}

// Dashboard handles GET /admin/api/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, _ *http.Request) {
	d := h.store.Data()

	counts := DashboardCounts{
		Posts:           len(d.Blog),
		Subscribers:     len(d.Subscribers),
		ContactMessages: len(d.ContactMessages),
		ChatSessions:    len(d.ChatHistory),
		SoilAnalyses:    len(d.SoilLabHistory),
		Users:           len(d.Users),
	}
	for _, p := range d.Blog {
		switch p.Status {
		case model.StatusPublished:
			counts.PublishedPosts++
		case model.StatusDraft:
			counts.DraftPosts++
		case model.StatusTrash:
			counts.TrashedPosts++
		}
	}

	traffic := d.TrafficStats
	if traffic == nil {
		traffic = model.TrafficStats{}
	}
	var total int64
	for _, n := range traffic {
		total += n
	}

	events := []logging.Event{}
	if h.events != nil {
		events = h.events.Recent(dashboardEvents)
	}

	WriteSuccess(w, Dashboard{
		Traffic:     traffic,
		TotalVisits: total,
		Weather:     weather.Current(h.store.Now()),
		Counts:      counts,
		Events:      events,
	}, nil)
}

// Site handles GET /admin/api/site. Passwords are never returned.
func (h *AdminHandler) Site(w http.ResponseWriter, _ *http.Request) {
	d := h.store.Data()
	for i := range d.Users {
		d.Users[i] = d.Users[i].Public()
	}
	WriteSuccess(w, d, nil)
}

// SectionResult names the section that was replaced.
type SectionResult struct {
	Section string `json:"section"`
}

// UpdateSection handles PUT /admin/api/sections/{section}. The body
// replaces the whole section. Only admins may replace the user list.
func (h *AdminHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")

	if section == "users" {
		if user := middleware.GetUser(r); user == nil || !user.IsAdmin() {
			WriteForbidden(w, "Only admins can manage users")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSectionBody))
	if err != nil {
		WriteBadRequest(w, "Request body is too large", nil)
		return
	}

	update, err := store.DecodeSection(section, body)
	if err != nil {
		if errors.Is(err, store.ErrUnknownSection) {
			WriteNotFound(w, "Unknown section")
			return
		}
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	if err := h.store.Apply(r.Context(), update); err != nil {
		h.store.Notify("Failed to save changes", notify.LevelError)
		logAndInternalError(w, "failed to save section", "section", section, "error", err)
		return
	}

	slog.Info("site section updated", "section", section, "user_id", userID(r))
	h.store.Notify("Changes saved", notify.LevelSuccess)
	WriteSuccess(w, SectionResult{Section: section}, nil)
}

// Subscribers handles GET /admin/api/subscribers.
func (h *AdminHandler) Subscribers(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.store.Data().Subscribers)
}

// ContactMessages handles GET /admin/api/messages.
func (h *AdminHandler) ContactMessages(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.store.Data().ContactMessages)
}

// ChatHistory handles GET /admin/api/chats.
func (h *AdminHandler) ChatHistory(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.store.Data().ChatHistory)
}

// Reset handles POST /admin/api/reset. The stored document is deleted and
// the defaults are served until the next change.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(r.Context()); err != nil {
		h.store.Notify("Failed to reset site data", notify.LevelError)
		logAndInternalError(w, "failed to reset site data", "error", err)
		return
	}

	slog.Warn("site data reset to defaults", "user_id", userID(r))
	h.store.Notify("Site data reset to defaults", notify.LevelSuccess)
	w.WriteHeader(http.StatusNoContent)
}

// userID returns the authenticated user's id, or 0.
func userID(r *http.Request) int64 {
	if user := middleware.GetUser(r); user != nil {
		return user.ID
	}
	return 0
}
