// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/store"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.client().get("/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, "healthy", status.Checks["storage"].Status)
}

func TestSite_PublicContent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.CreatePost(context.Background(), model.BlogPost{Title: "Draft notes", Slug: "draft-notes"})
	require.NoError(t, err)

	rr := env.client().get("/api/site")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "admin123")

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	assert.NotContains(t, envelope.Data, "users")
	assert.Contains(t, envelope.Data, "home")

	var site PublicSite
	decodeData(t, rr, &site)
	assert.NotEmpty(t, site.Home.HeroTitle)
	require.NotEmpty(t, site.Blog)
	for _, p := range site.Blog {
		assert.Equal(t, model.StatusPublished, p.Status)
		assert.NotEqual(t, "draft-notes", p.Slug)
	}
}

func TestSite_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	rr := env.client().get("/api/site")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestBlog_PublishedList(t *testing.T) {
	env := newTestEnv(t)

	rr := env.client().get("/api/blog")
	require.Equal(t, http.StatusOK, rr.Code)

	var posts []model.BlogPost
	decodeData(t, rr, &posts)
	assert.Len(t, posts, len(env.store.PublishedPosts()))
	assert.Equal(t, len(posts), decodeEnvelope(t, rr).Meta.Total)
}

func TestBlogPost_BySlug(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	rr := c.get("/api/blog/crop-rotation-for-small-farms")
	require.Equal(t, http.StatusOK, rr.Code)
	var post model.BlogPost
	decodeData(t, rr, &post)
	assert.Equal(t, "crop-rotation-for-small-farms", post.Slug)

	rr = c.get("/api/blog/no-such-post")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", errorCode(t, rr))
}

func TestRecordVisit_OncePerSession(t *testing.T) {
	env := newTestEnv(t)
	c := env.client()

	var first, second VisitResult
	decodeData(t, c.postJSON("/api/visits/home", ""), &first)
	decodeData(t, c.postJSON("/api/visits/home", ""), &second)

	assert.Equal(t, VisitResult{Page: model.PageHome, Counted: true}, first)
	assert.False(t, second.Counted)

	var other VisitResult
	decodeData(t, env.client().postJSON("/api/visits/HOME", ""), &other)
	assert.True(t, other.Counted, "a new session counts again")

	assert.Equal(t, store.Defaults().TrafficStats[model.PageHome]+2, env.store.Data().TrafficStats[model.PageHome])
}

func TestRecordVisit_SkipsBots(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/visits/blog", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	rr := env.client().send(req)
	require.Equal(t, http.StatusOK, rr.Code)

	var res VisitResult
	decodeData(t, rr, &res)
	assert.False(t, res.Counted)
	assert.Equal(t, store.Defaults().TrafficStats[model.PageBlog], env.store.Data().TrafficStats[model.PageBlog])
}

func TestRecordVisit_UnknownPage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.client().postJSON("/api/visits/pricing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCSRF_RejectsCrossSitePost(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(`{"email":"a@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rr := env.client().send(req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "csrf_failed", errorCode(t, rr))
	assert.Empty(t, env.store.Data().Subscribers)
}

func TestNotFoundRoute(t *testing.T) {
	env := newTestEnv(t)

	rr := env.client().get("/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", errorCode(t, rr))
}

func TestStream_SendsSnapshotAndChanges(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/site/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan PublicSite, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64<<10), 4<<20)
		for sc.Scan() {
			line := sc.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var site PublicSite
				if json.Unmarshal([]byte(data), &site) == nil {
					events <- site
				}
			}
		}
	}()

	select {
	case <-events:
	case <-ctx.Done():
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, env.store.Apply(context.Background(), store.SetTestimonials{
		Testimonials: []model.Testimonial{{ID: 7, Name: "Asha", Quote: "Healthier soil", Rating: 5}},
	}))

	select {
	case site := <-events:
		require.Len(t, site.Testimonials, 1)
		assert.Equal(t, "Asha", site.Testimonials[0].Name)
	case <-ctx.Done():
		t.Fatal("no change event")
	}
}
