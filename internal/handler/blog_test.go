// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/model"
)

func TestBlogAdmin_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(editorUser, testPassword)
	public := env.client()

	rr := c.postJSON("/admin/api/blog", map[string]any{
		"title":   "Mulching in Summer",
		"content": "<p>Keep the soil cool.</p><script>alert(1)</script>",
		"status":  "published",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var post model.BlogPost
	decodeData(t, rr, &post)
	assert.Equal(t, "mulching-in-summer", post.Slug)
	assert.Equal(t, model.StatusDraft, post.Status, "new posts start as drafts")
	assert.Equal(t, editorUser, post.Author)
	assert.NotContains(t, post.Content, "<script")
	id := itoa(post.ID)

	assert.Equal(t, http.StatusNotFound, public.get("/api/blog/mulching-in-summer").Code)

	rr = c.putJSON("/admin/api/blog/"+id, map[string]any{
		"title":   "Mulching in Summer",
		"slug":    "mulching-in-summer",
		"content": "<p>Keep the soil cool and moist.</p>",
		"status":  "published",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated model.BlogPost
	decodeData(t, rr, &updated)
	assert.Equal(t, post.Date, updated.Date)
	assert.Equal(t, model.StatusPublished, updated.Status)

	assert.Equal(t, http.StatusOK, public.get("/api/blog/mulching-in-summer").Code)

	rr = c.postJSON("/admin/api/blog/"+id+"/trash", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, http.StatusNotFound, public.get("/api/blog/mulching-in-summer").Code)
	trashed, ok := env.store.Post(post.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusTrash, trashed.Status)
	assert.NotEmpty(t, trashed.DeletedAt)

	rr = c.postJSON("/admin/api/blog/"+id+"/restore", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	restored, _ := env.store.Post(post.ID)
	assert.Equal(t, model.StatusDraft, restored.Status)
	assert.Empty(t, restored.DeletedAt)

	rr = c.do(http.MethodDelete, "/admin/api/blog/"+id, nil, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, http.StatusNotFound, c.get("/admin/api/blog/"+id).Code)
	assert.Equal(t, http.StatusNotFound, c.postJSON("/admin/api/blog/"+id+"/trash", "").Code)
}

func TestBlogAdmin_ActionLogMessages(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(editorUser, testPassword)
	posts := env.store.PublishedPosts()
	require.NotEmpty(t, posts)
	id := itoa(posts[0].ID)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	require.Equal(t, http.StatusNoContent, c.postJSON("/admin/api/blog/"+id+"/trash", "").Code)
	require.Equal(t, http.StatusNoContent, c.postJSON("/admin/api/blog/"+id+"/restore", "").Code)
	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/admin/api/blog/"+id, nil, "").Code)

	out := buf.String()
	assert.Contains(t, out, `msg="blog post trashed"`)
	assert.Contains(t, out, `msg="blog post restored"`)
	assert.Contains(t, out, `msg="blog post deleted"`)
	assert.NotContains(t, out, "trashd")
}

func TestBlogAdmin_ListIncludesDrafts(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(editorUser, testPassword)
	require.Equal(t, http.StatusCreated, c.postJSON("/admin/api/blog", map[string]string{"title": "Draft only"}).Code)

	var posts []model.BlogPost
	decodeData(t, c.get("/admin/api/blog"), &posts)
	assert.Len(t, posts, len(env.store.Posts()))
	assert.Equal(t, "Draft only", posts[0].Title, "new posts are listed first")
}

func TestBlogAdmin_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"missing title", map[string]string{"content": "text"}, "title"},
		{"bad slug", map[string]string{"title": "Ok", "slug": "Bad Slug!"}, "slug"},
		{"bad status", map[string]string{"title": "Ok", "status": "archived"}, "status"},
		{"slug taken", map[string]string{"title": "Crop Rotation for Small Farms"}, "slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			before := len(env.store.Posts())

			rr := env.loggedIn(editorUser, testPassword).postJSON("/admin/api/blog", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
			assert.Contains(t, decodeEnvelope(t, rr).Error.Details, tt.field)
			assert.Len(t, env.store.Posts(), before)
		})
	}
}

func TestBlogAdmin_BadID(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(editorUser, testPassword)

	assert.Equal(t, http.StatusBadRequest, c.get("/admin/api/blog/abc").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/admin/api/blog/999999").Code)
	assert.Equal(t, http.StatusNotFound, c.putJSON("/admin/api/blog/999999", map[string]string{"title": "x"}).Code)
}

func TestBlogAdmin_EmptyTrash(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(editorUser, testPassword)
	posts := env.store.PublishedPosts()
	require.NotEmpty(t, posts)

	require.Equal(t, http.StatusNoContent, c.postJSON("/admin/api/blog/"+itoa(posts[0].ID)+"/trash", "").Code)

	rr := c.postJSON("/admin/api/blog/empty-trash", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var res EmptyTrashResult
	decodeData(t, rr, &res)
	assert.Equal(t, 1, res.Removed)
	_, ok := env.store.Post(posts[0].ID)
	assert.False(t, ok)
}

func TestBlogAdmin_Generate(t *testing.T) {
	env := newTestEnv(t)
	env.provider.set(`{"title":"Drip Irrigation Basics","excerpt":"Save water.","content":"## Why drip\n\nLess water, more yield.",
		"category":"Water","metaTitle":"Drip irrigation","metaDescription":"Save water with drip lines.","keywords":"drip, irrigation","slug":"drip-irrigation-basics"}`, nil)
	c := env.loggedIn(editorUser, testPassword)

	req := httptest.NewRequest(http.MethodPost, "/admin/api/blog/generate", strings.NewReader(`{"topic":"drip irrigation"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "hi-IN,hi;q=0.9")
	rr := c.send(req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var post model.BlogPost
	decodeData(t, rr, &post)
	assert.Equal(t, model.StatusDraft, post.Status)
	assert.Equal(t, "drip-irrigation-basics", post.Slug)
	assert.Equal(t, editorUser, post.Author)
	assert.Contains(t, post.Content, "<h2")

	require.Len(t, env.provider.calls, 1)
	assert.Contains(t, env.provider.calls[0].System, "in Hindi")

	rr = c.postJSON("/admin/api/blog/generate", map[string]string{"topic": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
