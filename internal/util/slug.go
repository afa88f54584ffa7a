// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides URL slug generation and validation.
package util

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLen keeps generated slugs readable in URLs.
const maxSlugLen = 80

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// stripMarks decomposes accented letters and drops the combining marks.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// apostrophes are dropped so "Farmer's Guide" reads "farmers-guide".
var apostrophes = strings.NewReplacer("'", "", "\u2019", "")

// Slugify turns a post title into a lowercase hyphenated slug. Devanagari
// and other non-Latin titles are transliterated to Latin first. Any run of
// other characters becomes one hyphen.
func Slugify(s string) string {
	if !isASCII(s) {
		s = unidecode.Unidecode(s)
	}
	s = apostrophes.Replace(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// IsValidSlug reports whether s is lowercase words of letters and digits
// joined by single hyphens.
func IsValidSlug(s string) bool {
	return validSlug.MatchString(s)
}

// UniqueSlug returns base, or base with the first free numeric suffix
// ("crop-rotation-2") when taken reports it as used.
func UniqueSlug(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
