// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// apiCSP locks JSON and CSV responses down completely. The site pages are
// served by the front-end, not by this API.
const apiCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// SecurityConfig controls the headers added to every response.
type SecurityConfig struct {
	IsDevelopment bool

	// HSTSMaxAge is sent only outside development. Zero disables HSTS.
	HSTSMaxAge time.Duration

	// ContentSecurityPolicy for API responses. Empty skips the header.
	ContentSecurityPolicy string

	// Permissions are Permissions-Policy entries, sent in order.
	Permissions []string

	// NoStorePrefixes are path prefixes whose responses must not be cached,
	// such as the admin API which returns users and backups.
	NoStorePrefixes []string
}

// DefaultSecurityConfig returns the headers used by the site. The soil lab
// front-end needs the camera and location of the visitor's device.
func DefaultSecurityConfig(isDev bool) SecurityConfig {
	return SecurityConfig{
		IsDevelopment:         isDev,
		HSTSMaxAge:            365 * 24 * time.Hour,
		ContentSecurityPolicy: apiCSP,
		Permissions: []string{
			"camera=(self)",
			"geolocation=(self)",
			"microphone=()",
			"payment=()",
			"usb=()",
			"browsing-topics=()",
		},
		NoStorePrefixes: []string{"/admin/", "/login", "/logout"},
	}
}

// SecurityHeaders adds the configured security headers to every response.
func SecurityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	permissions := strings.Join(cfg.Permissions, ", ")

	var hsts string
	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(cfg.HSTSMaxAge/time.Second))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			if permissions != "" {
				h.Set("Permissions-Policy", permissions)
			}
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			for _, prefix := range cfg.NoStorePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					h.Set("Cache-Control", "no-store")
					break
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
