// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts and sanitizes user and AI supplied text.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	// ugcPolicy allows the formatting tags of blog content while stripping
	// scripts, styles and event handlers.
	ugcPolicy = bluemonday.UGCPolicy()
	// strictPolicy removes all markup.
	strictPolicy = bluemonday.StrictPolicy()
)

// Markdown renders markdown to sanitized HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimSpace(ugcPolicy.Sanitize(buf.String())), nil
}

// SanitizeHTML strips unsafe markup from an HTML fragment.
func SanitizeHTML(html string) string {
	return ugcPolicy.Sanitize(html)
}

// PlainText removes all markup and surrounding whitespace. HTML entities
// produced by the sanitizer are kept escaped.
func PlainText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// LooksLikeHTML reports whether s already contains block level HTML.
func LooksLikeHTML(s string) bool {
	s = strings.ToLower(s)
	for _, tag := range []string{"<p>", "<p ", "<h2", "<h3", "<ul", "<ol", "<div", "<blockquote"} {
		if strings.Contains(s, tag) {
			return true
		}
	}
	return false
}
