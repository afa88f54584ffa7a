// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/agrisite/internal/assistant"
	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/render"
	"github.com/olegiv/agrisite/internal/store"
	"github.com/olegiv/agrisite/internal/util"
)

// BlogHandler handles blog management in the admin panel.
type BlogHandler struct {
	store     *store.Store
	assistant *assistant.Assistant
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(st *store.Store, a *assistant.Assistant) *BlogHandler {
	return &BlogHandler{store: st, assistant: a}
}

type postRequest struct {
	Title    string        `json:"title"`
	Slug     string        `json:"slug"`
	Excerpt  string        `json:"excerpt"`
	Content  string        `json:"content"`
	Author   string        `json:"author"`
	Category string        `json:"category"`
	ImageURL string        `json:"imageUrl"`
	Date     string        `json:"date"`
	Status   string        `json:"status"`
	SEO      model.BlogSEO `json:"seo"`
}

func (req *postRequest) clean() {
	req.Title = render.PlainText(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)
	req.Excerpt = render.PlainText(req.Excerpt)
	req.Content = render.SanitizeHTML(req.Content)
	req.Author = render.PlainText(req.Author)
	req.Category = render.PlainText(req.Category)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.SEO.MetaTitle = render.PlainText(req.SEO.MetaTitle)
	req.SEO.MetaDescription = render.PlainText(req.SEO.MetaDescription)
	req.SEO.Keywords = render.PlainText(req.SEO.Keywords)
}

func (req *postRequest) validate() map[string]string {
	errs := make(map[string]string)
	if req.Title == "" {
		errs["title"] = "Title is required"
	}
	if req.Slug != "" && !util.IsValidSlug(req.Slug) {
		errs["slug"] = "Slug may only contain lowercase letters, numbers and single hyphens"
	}
	switch req.Status {
	case "", model.StatusDraft, model.StatusPublished, model.StatusTrash:
	default:
		errs["status"] = "Status must be draft, published or trash"
	}
	return errs
}

func (req *postRequest) post() model.BlogPost {
	return model.BlogPost{
		Title:    req.Title,
		Slug:     req.Slug,
		Excerpt:  req.Excerpt,
		Content:  req.Content,
		Author:   req.Author,
		Category: req.Category,
		ImageURL: req.ImageURL,
		Date:     req.Date,
		Status:   req.Status,
		SEO:      req.SEO,
	}
}

// slugTaken reports whether another post already uses slug.
func (h *BlogHandler) slugTaken(slug string, exceptID int64) bool {
	if slug == "" {
		return false
	}
	for _, p := range h.store.Posts() {
		if p.Slug == slug && p.ID != exceptID {
			return true
		}
	}
	return false
}

// decodePost reads and validates a post payload. It writes the error
// response and returns false when the payload is unusable.
func (h *BlogHandler) decodePost(w http.ResponseWriter, r *http.Request, exceptID int64) (postRequest, bool) {
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return req, false
	}
	req.clean()
	if req.Slug == "" {
		req.Slug = util.Slugify(req.Title)
	}
	if errs := req.validate(); len(errs) > 0 {
		WriteValidationError(w, errs)
		return req, false
	}
	if h.slugTaken(req.Slug, exceptID) {
		WriteValidationError(w, map[string]string{"slug": "Another post already uses this slug"})
		return req, false
	}
	return req, true
}

// List handles GET /admin/api/blog. Every status is included.
func (h *BlogHandler) List(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.store.Posts())
}

// Get handles GET /admin/api/blog/{id}.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid post id", nil)
		return
	}
	post, ok := h.store.Post(id)
	if !ok {
		WriteNotFound(w, "Post not found")
		return
	}
	WriteSuccess(w, post, nil)
}

// Create handles POST /admin/api/blog. New posts always start as drafts.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePost(w, r, 0)
	if !ok {
		return
	}

	post := req.post()
	if post.Author == "" {
		if user := middleware.GetUser(r); user != nil {
			post.Author = user.Username
		}
	}

	created, err := h.store.CreatePost(r.Context(), post)
	if err != nil {
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	slog.Info("blog post created", "post_id", created.ID, "slug", created.Slug, "user_id", userID(r))
	h.store.Notify("Post created", notify.LevelSuccess)
	WriteCreated(w, created)
}

// Update handles PUT /admin/api/blog/{id}. The payload replaces the post's
// editable fields; an empty status keeps the current one.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid post id", nil)
		return
	}
	current, ok := h.store.Post(id)
	if !ok {
		WriteNotFound(w, "Post not found")
		return
	}

	req, ok := h.decodePost(w, r, id)
	if !ok {
		return
	}

	post := req.post()
	post.ID = id
	if post.Date == "" {
		post.Date = current.Date
	}

	updated, err := h.store.UpdatePost(r.Context(), post)
	switch {
	case errors.Is(err, store.ErrPostNotFound):
		WriteNotFound(w, "Post not found")
		return
	case err != nil:
		logAndInternalError(w, "failed to update post", "post_id", id, "error", err)
		return
	}

	slog.Info("blog post updated", "post_id", id, "status", updated.Status, "user_id", userID(r))
	h.store.Notify("Post saved", notify.LevelSuccess)
	WriteSuccess(w, updated, nil)
}

// postAction runs a store operation on the post named by the id param.
// verb names the action in failure logs, done in the success log.
func (h *BlogHandler) postAction(w http.ResponseWriter, r *http.Request, verb, done, toast string, op func(id int64) error) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid post id", nil)
		return
	}

	err := op(id)
	switch {
	case errors.Is(err, store.ErrPostNotFound):
		WriteNotFound(w, "Post not found")
		return
	case err != nil:
		logAndInternalError(w, "failed to "+verb+" post", "post_id", id, "error", err)
		return
	}

	slog.Info("blog post "+done, "post_id", id, "user_id", userID(r))
	h.store.Notify(toast, notify.LevelSuccess)
	w.WriteHeader(http.StatusNoContent)
}

// Trash handles POST /admin/api/blog/{id}/trash.
func (h *BlogHandler) Trash(w http.ResponseWriter, r *http.Request) {
	h.postAction(w, r, "trash", "trashed", "Post moved to trash", func(id int64) error {
		return h.store.TrashPost(r.Context(), id)
	})
}

// Restore handles POST /admin/api/blog/{id}/restore.
func (h *BlogHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.postAction(w, r, "restore", "restored", "Post restored as draft", func(id int64) error {
		return h.store.RestorePost(r.Context(), id)
	})
}

// Delete handles DELETE /admin/api/blog/{id}.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.postAction(w, r, "delete", "deleted", "Post deleted permanently", func(id int64) error {
		return h.store.DeletePost(r.Context(), id)
	})
}

// EmptyTrashResult reports how many posts were removed.
type EmptyTrashResult struct {
	Removed int `json:"removed"`
}

// EmptyTrash handles POST /admin/api/blog/empty-trash.
func (h *BlogHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.EmptyTrash(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to empty trash", "error", err)
		return
	}
	slog.Info("blog trash emptied", "removed", n, "user_id", userID(r))
	h.store.Notify("Trash emptied", notify.LevelSuccess)
	WriteSuccess(w, EmptyTrashResult{Removed: n}, nil)
}

// Generate handles POST /admin/api/blog/generate. The generated article is
// stored as a draft. Without an explicit language the request's
// Accept-Language header picks English or Hindi.
func (h *BlogHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var in assistant.BlogInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	if strings.TrimSpace(in.Language) == "" {
		in.Language = r.Header.Get("Accept-Language")
	}
	if user := middleware.GetUser(r); user != nil {
		in.Author = user.Username
	}

	post, err := h.assistant.GenerateBlogPost(r.Context(), in)
	switch {
	case errors.Is(err, assistant.ErrEmptyTopic):
		WriteValidationError(w, map[string]string{"topic": "Topic is required"})
		return
	case err != nil:
		writeAIError(w, h.store, "blog post generation failed", err)
		return
	}

	slog.Info("blog post generated", "post_id", post.ID, "slug", post.Slug, "user_id", userID(r))
	h.store.Notify("Draft generated", notify.LevelSuccess)
	WriteCreated(w, post)
}
