// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Blog post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusTrash     = "trash"
)

// TrashRetention is how long a trashed post is kept before it is evicted.
const TrashRetention = 30 * 24 * time.Hour

// BlogPost is a blog article. A post in trash carries DeletedAt in RFC 3339.
type BlogPost struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	Excerpt   string  `json:"excerpt"`
	Content   string  `json:"content"`
	Date      string  `json:"date"`
	Author    string  `json:"author"`
	Category  string  `json:"category"`
	ImageURL  string  `json:"imageUrl"`
	Status    string  `json:"status"`
	DeletedAt string  `json:"deletedAt,omitempty"`
	SEO       BlogSEO `json:"seo"`
}

// BlogSEO holds search metadata for a post.
type BlogSEO struct {
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	Keywords        string `json:"keywords"`
}

// IsPublished returns true if the post is visible on the public site.
func (p *BlogPost) IsPublished() bool {
	return p.Status == StatusPublished
}

// IsTrashed returns true if the post has been soft deleted.
func (p *BlogPost) IsTrashed() bool {
	return p.Status == StatusTrash
}

// TrashExpired reports whether a trashed post is past the retention window.
// DeletedAt is read as RFC 3339 or as a bare UTC date (2006-01-02). Posts
// whose DeletedAt is missing or in any other format never expire.
func (p *BlogPost) TrashExpired(now time.Time) bool {
	if p.Status != StatusTrash || p.DeletedAt == "" {
		return false
	}
	deleted, ok := parseDeletedAt(p.DeletedAt)
	if !ok {
		return false
	}
	return now.Sub(deleted) > TrashRetention
}

var deletedAtLayouts = []string{time.RFC3339Nano, time.DateOnly}

func parseDeletedAt(s string) (time.Time, bool) {
	for _, layout := range deletedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
