// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"time"

	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/util"
)

// ErrPostNotFound is returned when no blog post has the requested id.
var ErrPostNotFound = errors.New("store: blog post not found")

// Posts returns every blog post, including drafts and trash.
func (s *Store) Posts() []model.BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nonNil(s.data.Blog)
}

// PublishedPosts returns the posts visible on the public site.
func (s *Store) PublishedPosts() []model.BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.BlogPost, 0, len(s.data.Blog))
	for _, p := range s.data.Blog {
		if p.IsPublished() {
			out = append(out, p)
		}
	}
	return out
}

// PostBySlug returns a published post by slug.
func (s *Store) PostBySlug(slug string) (model.BlogPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.data.Blog {
		if p.Slug == slug && p.IsPublished() {
			return p, true
		}
	}
	return model.BlogPost{}, false
}

// Post returns any post by id.
func (s *Store) Post(id int64) (model.BlogPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.data.Blog {
		if p.ID == id {
			return p, true
		}
	}
	return model.BlogPost{}, false
}

// CreatePost adds a new draft at the top of the blog. Missing slug, date
// and SEO fields are derived from the post.
func (s *Store) CreatePost(ctx context.Context, p model.BlogPost) (model.BlogPost, error) {
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		p.ID = s.ids.Next()
		p.Status = model.StatusDraft
		p.DeletedAt = ""
		fillPostDefaults(&p, s.now())
		d.Blog = append([]model.BlogPost{p}, d.Blog...)
		return true
	})
	return p, err
}

// UpdatePost replaces the post with the same id. Moving a post into trash
// stamps DeletedAt; any other status clears it.
func (s *Store) UpdatePost(ctx context.Context, p model.BlogPost) (model.BlogPost, error) {
	found := false
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		for i := range d.Blog {
			if d.Blog[i].ID != p.ID {
				continue
			}
			found = true
			if p.Status == "" {
				p.Status = d.Blog[i].Status
			}
			switch {
			case p.Status != model.StatusTrash:
				p.DeletedAt = ""
			case d.Blog[i].IsTrashed():
				p.DeletedAt = d.Blog[i].DeletedAt
			default:
				p.DeletedAt = s.now().UTC().Format(time.RFC3339)
			}
			fillPostDefaults(&p, s.now())
			d.Blog[i] = p
			return true
		}
		return false
	})
	if err != nil {
		return p, err
	}
	if !found {
		return model.BlogPost{}, ErrPostNotFound
	}
	return p, nil
}

// TrashPost soft deletes a post.
func (s *Store) TrashPost(ctx context.Context, id int64) error {
	return s.updatePost(ctx, id, func(p *model.BlogPost) {
		p.Status = model.StatusTrash
		p.DeletedAt = s.now().UTC().Format(time.RFC3339)
	})
}

// RestorePost brings a trashed post back as a draft.
func (s *Store) RestorePost(ctx context.Context, id int64) error {
	return s.updatePost(ctx, id, func(p *model.BlogPost) {
		p.Status = model.StatusDraft
		p.DeletedAt = ""
	})
}

// DeletePost removes a post permanently.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	found := false
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		for i := range d.Blog {
			if d.Blog[i].ID == id {
				d.Blog = append(d.Blog[:i:i], d.Blog[i+1:]...)
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
		return ErrPostNotFound
	}
	return nil
}

// EmptyTrash permanently removes every trashed post regardless of age and
// returns how many were removed.
func (s *Store) EmptyTrash(ctx context.Context) (int, error) {
	return s.removePosts(ctx, func(p *model.BlogPost) bool { return p.IsTrashed() })
}

// PurgeExpiredTrash removes trashed posts past the retention window, the
// same eviction Merge applies on load.
func (s *Store) PurgeExpiredTrash(ctx context.Context) (int, error) {
	now := s.now()
	return s.removePosts(ctx, func(p *model.BlogPost) bool { return p.TrashExpired(now) })
}

func (s *Store) removePosts(ctx context.Context, match func(p *model.BlogPost) bool) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		kept := make([]model.BlogPost, 0, len(d.Blog))
		for i := range d.Blog {
			if match(&d.Blog[i]) {
				removed++
				continue
			}
			kept = append(kept, d.Blog[i])
		}
		if removed == 0 {
			return false
		}
		d.Blog = kept
		return true
	})
	return removed, err
}

func (s *Store) updatePost(ctx context.Context, id int64, fn func(p *model.BlogPost)) error {
	found := false
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		for i := range d.Blog {
			if d.Blog[i].ID == id {
				fn(&d.Blog[i])
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
		return ErrPostNotFound
	}
	return nil
}

func fillPostDefaults(p *model.BlogPost, now time.Time) {
	if p.Slug == "" {
		p.Slug = util.Slugify(p.Title)
	}
	if p.Date == "" {
		p.Date = now.Format(DateLayout)
	}
	if p.Content == "" {
		p.Content = p.Excerpt
	}
	if p.SEO.MetaTitle == "" {
		p.SEO.MetaTitle = p.Title
	}
	if p.SEO.MetaDescription == "" {
		p.SEO.MetaDescription = p.Excerpt
	}
	if p.SEO.Keywords == "" {
		p.SEO.Keywords = p.Category
	}
}
