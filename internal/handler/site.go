// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mileusna/useragent"

	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/store"
)

// streamKeepAlive is the interval between SSE comment frames.
const streamKeepAlive = 25 * time.Second

// PublicSite is the part of the site document visitors may read.
type PublicSite struct {
	Home               model.HomeContent         `json:"home"`
	About              model.AboutContent        `json:"about"`
	ServicesPage       model.ServicesPage        `json:"servicesPage"`
	Contact            model.ContactInfo         `json:"contact"`
	Blog               []model.BlogPost          `json:"blog"`
	Testimonials       []model.Testimonial       `json:"testimonials"`
	KnowledgeResources []model.KnowledgeResource `json:"knowledgeResources"`
}

func publicSite(st *store.Store) PublicSite {
	d := st.Data()
	return PublicSite{
		Home:               d.Home,
		About:              d.About,
		ServicesPage:       d.ServicesPage,
		Contact:            d.Contact,
		Blog:               st.PublishedPosts(),
		Testimonials:       orEmpty(d.Testimonials),
		KnowledgeResources: orEmpty(d.KnowledgeResources),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// SiteHandler serves the public site content.
type SiteHandler struct {
	store  *store.Store
	visits store.VisitTracker
}

// NewSiteHandler creates a new site handler. visits marks pages seen in the
// caller's session.
func NewSiteHandler(st *store.Store, visits store.VisitTracker) *SiteHandler {
	return &SiteHandler{store: st, visits: visits}
}

// Site handles GET /api/site.
func (h *SiteHandler) Site(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, publicSite(h.store), nil)
}

// Stream handles GET /api/site/stream. It pushes the public site as a
// server-sent event whenever the document changes, including changes
// adopted from other instances.
func (h *SiteHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	changes, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := h.writeSiteEvent(w); err != nil || rc.Flush() != nil {
		return
	}

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case <-changes:
			if err := h.writeSiteEvent(w); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h *SiteHandler) writeSiteEvent(w http.ResponseWriter) error {
	payload, err := json.Marshal(publicSite(h.store))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: site\ndata: %s\n\n", payload)
	return err
}

// Blog handles GET /api/blog.
func (h *SiteHandler) Blog(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.store.PublishedPosts())
}

// BlogPost handles GET /api/blog/{slug}.
func (h *SiteHandler) BlogPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.store.PostBySlug(chi.URLParam(r, "slug"))
	if !ok {
		WriteNotFound(w, "Post not found")
		return
	}
	WriteSuccess(w, post, nil)
}

// VisitResult reports whether a page view was counted.
type VisitResult struct {
	Page    string `json:"page"`
	Counted bool   `json:"counted"`
}

// RecordVisit handles POST /api/visits/{page}. Each page is counted at
// most once per session; crawlers are never counted.
func (h *SiteHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	page := strings.ToUpper(chi.URLParam(r, "page"))
	if !model.IsPage(page) {
		WriteNotFound(w, "Unknown page")
		return
	}

	if ua := useragent.Parse(r.UserAgent()); ua.Bot {
		slog.Debug("skipping bot page visit", "page", page, "agent", ua.Name)
		WriteSuccess(w, VisitResult{Page: page}, nil)
		return
	}

	counted, err := h.store.RecordPageVisit(r.Context(), h.visits, page)
	if err != nil {
		logAndInternalError(w, "failed to record page visit", "page", page, "error", err)
		return
	}
	WriteSuccess(w, VisitResult{Page: page, Counted: counted}, nil)
}
