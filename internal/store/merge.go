// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/util"
)

// ErrMalformed is returned by Merge when the input is not JSON.
var ErrMalformed = errors.New("store: malformed document")

// Merge reconciles a stored or imported document with defaults and returns
// a complete document in the current shape.
//
// Array sections are taken as stored when they are arrays. Blog posts are
// backfilled field by field, trashed posts older than the retention window
// are evicted, service items get a missing details field from the default
// item at the same position, contact fields overlay the default contact,
// and every other section present in raw replaces the default wholesale.
// A JSON value that is not an object is treated as an empty object.
func Merge(raw []byte, defaults model.SiteData, now time.Time) (model.SiteData, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return model.SiteData{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	top := map[string]json.RawMessage{}
	if isObject(raw) {
		if err := json.Unmarshal(raw, &top); err != nil {
			return model.SiteData{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	out := defaults.Clone()

	mergeList(top, "users", &out.Users)
	mergeList(top, "chatHistory", &out.ChatHistory)
	mergeList(top, "soilLabHistory", &out.SoilLabHistory)
	mergeList(top, "subscribers", &out.Subscribers)
	mergeList(top, "contactMessages", &out.ContactMessages)
	mergeList(top, "testimonials", &out.Testimonials)
	mergeList(top, "knowledgeResources", &out.KnowledgeResources)

	if v, ok := top["blog"]; ok && isArray(v) {
		out.Blog = mergeBlog(v)
	}
	out.Blog = evictExpiredTrash(out.Blog, now)

	if v, ok := top["servicesPage"]; ok && isObject(v) {
		out.ServicesPage = mergeServicesPage(v, defaults.ServicesPage)
	}

	if v, ok := top["contact"]; ok && isObject(v) {
		// Unmarshalling onto the default keeps fields raw does not set.
		_ = json.Unmarshal(v, &out.Contact)
	}

	replaceSection(top, "home", &out.Home)
	replaceSection(top, "about", &out.About)
	replaceSection(top, "trafficStats", &out.TrafficStats)

	return out, nil
}

// mergeList replaces dst with the stored array when there is one. Elements
// that are not objects of the expected shape are dropped.
func mergeList[T any](top map[string]json.RawMessage, name string, dst *[]T) {
	v, ok := top[name]
	if !ok || !isArray(v) {
		return
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(v, &elems); err != nil {
		return
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		if !isObject(e) {
			continue
		}
		var item T
		if err := json.Unmarshal(e, &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	*dst = out
}

// replaceSection replaces dst wholesale when raw has an object for name.
func replaceSection[T any](top map[string]json.RawMessage, name string, dst *T) {
	v, ok := top[name]
	if !ok || !isObject(v) {
		return
	}
	var section T
	if err := json.Unmarshal(v, &section); err != nil {
		return
	}
	*dst = section
}

// mergeBlog decodes stored posts and fills fields added after the first
// release. Posts stored before statuses existed are published.
func mergeBlog(v json.RawMessage) []model.BlogPost {
	var elems []json.RawMessage
	if err := json.Unmarshal(v, &elems); err != nil {
		return nil
	}
	posts := make([]model.BlogPost, 0, len(elems))
	for _, e := range elems {
		if !isObject(e) {
			continue
		}
		var fields map[string]json.RawMessage
		var p model.BlogPost
		if json.Unmarshal(e, &fields) != nil || json.Unmarshal(e, &p) != nil {
			continue
		}
		if seo, ok := fields["seo"]; !ok || !isObject(seo) {
			p.SEO = model.BlogSEO{
				MetaTitle:       p.Title,
				MetaDescription: p.Excerpt,
				Keywords:        p.Category,
			}
		}
		if p.Slug == "" {
			p.Slug = util.Slugify(p.Title)
		}
		if p.Content == "" {
			p.Content = p.Excerpt
		}
		if p.Status == "" {
			p.Status = model.StatusPublished
		}
		posts = append(posts, p)
	}
	return posts
}

// evictExpiredTrash drops trashed posts past the retention window.
func evictExpiredTrash(posts []model.BlogPost, now time.Time) []model.BlogPost {
	out := make([]model.BlogPost, 0, len(posts))
	for _, p := range posts {
		if p.TrashExpired(now) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// mergeServicesPage uses the stored page as the base and backfills each
// item's details from the default item at the same index.
func mergeServicesPage(v json.RawMessage, defaults model.ServicesPage) model.ServicesPage {
	var fields map[string]json.RawMessage
	var page model.ServicesPage
	if json.Unmarshal(v, &fields) != nil {
		return defaults
	}
	// Decode the header on its own so a malformed items array cannot
	// discard it.
	var header struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
	}
	_ = json.Unmarshal(v, &header)
	page.Title = header.Title
	page.Subtitle = header.Subtitle

	items, ok := fields["items"]
	if !ok || !isArray(items) {
		page.Items = cloneServices(defaults.Items)
		return page
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(items, &elems); err != nil {
		page.Items = cloneServices(defaults.Items)
		return page
	}
	page.Items = make([]model.Service, 0, len(elems))
	for i, e := range elems {
		if !isObject(e) {
			continue
		}
		var s model.Service
		if err := json.Unmarshal(e, &s); err != nil {
			continue
		}
		if s.Details == "" && i < len(defaults.Items) {
			s.Details = defaults.Items[i].Details
		}
		page.Items = append(page.Items, s)
	}
	return page
}

func cloneServices(items []model.Service) []model.Service {
	out := make([]model.Service, len(items))
	copy(out, items)
	return out
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}
