// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/model"
)

func TestCreatePostStartsAsDraft(t *testing.T) {
	st, _ := newTestStore(t)

	p, err := st.CreatePost(context.Background(), model.BlogPost{
		Title:    "Mulching in Summer",
		Excerpt:  "Keep moisture in.",
		Category: "Water",
		Status:   model.StatusPublished,
	})
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, model.StatusDraft, p.Status)
	assert.Equal(t, "mulching-in-summer", p.Slug)
	assert.Equal(t, testNow.Format(DateLayout), p.Date)
	assert.Equal(t, "Keep moisture in.", p.Content)
	assert.Equal(t, model.BlogSEO{MetaTitle: "Mulching in Summer", MetaDescription: "Keep moisture in.", Keywords: "Water"}, p.SEO)

	posts := st.Posts()
	assert.Equal(t, p.ID, posts[0].ID, "new posts go first")
	_, visible := st.PostBySlug(p.Slug)
	assert.False(t, visible, "drafts are not public")
}

func TestSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	created, err := st.CreatePost(ctx, model.BlogPost{Title: "Compost Basics"})
	require.NoError(t, err)

	require.NoError(t, st.TrashPost(ctx, created.ID))
	trashed, ok := st.Post(created.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusTrash, trashed.Status)
	assert.Equal(t, testNow.Format(time.RFC3339), trashed.DeletedAt)

	require.NoError(t, st.RestorePost(ctx, created.ID))
	restored, ok := st.Post(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, restored)
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	p, err := st.CreatePost(ctx, model.BlogPost{Title: "First"})
	require.NoError(t, err)

	p.Title = "Renamed"
	p.Status = model.StatusPublished
	updated, err := st.UpdatePost(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "first", updated.Slug, "slug is kept once set")

	got, ok := st.PostBySlug("first")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Title)

	p.Status = model.StatusTrash
	updated, err = st.UpdatePost(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, updated.DeletedAt, "trash always carries deletedAt")

	_, err = st.UpdatePost(ctx, model.BlogPost{ID: 999})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)
	before := len(st.Posts())

	p, err := st.CreatePost(ctx, model.BlogPost{Title: "Temp"})
	require.NoError(t, err)
	require.NoError(t, st.DeletePost(ctx, p.ID))
	assert.Len(t, st.Posts(), before)

	assert.ErrorIs(t, st.DeletePost(ctx, p.ID), ErrPostNotFound)
	assert.ErrorIs(t, st.TrashPost(ctx, p.ID), ErrPostNotFound)
	assert.ErrorIs(t, st.RestorePost(ctx, p.ID), ErrPostNotFound)
}

func TestEmptyTrashRemovesAllTrash(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t)

	for _, p := range st.Posts()[:2] {
		require.NoError(t, st.TrashPost(ctx, p.ID))
	}

	removed, err := st.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Len(t, st.Posts(), len(Defaults().Blog)-2)

	removed, err = st.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPurgeExpiredTrash(t *testing.T) {
	ctx := context.Background()
	now := testNow
	st, backend := newTestStore(t, WithClock(func() time.Time { return now }))
	counting := &countingBackend{Backend: backend}
	st.backend = counting

	posts := st.Posts()
	require.NoError(t, st.TrashPost(ctx, posts[0].ID))
	now = now.Add(20 * 24 * time.Hour)
	require.NoError(t, st.TrashPost(ctx, posts[1].ID))

	now = now.Add(11 * 24 * time.Hour)
	saves := counting.saves.Load()
	removed, err := st.PurgeExpiredTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, saves+1, counting.saves.Load())

	_, ok := st.Post(posts[0].ID)
	assert.False(t, ok)
	_, ok = st.Post(posts[1].ID)
	assert.True(t, ok)

	saves = counting.saves.Load()
	removed, err = st.PurgeExpiredTrash(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, saves, counting.saves.Load(), "nothing evicted, nothing saved")
}
