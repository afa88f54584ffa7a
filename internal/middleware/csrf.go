// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// devOrigins are the hosts the admin client is served from while developing.
// The csrf library matches host:port values, not URLs.
var devOrigins = []string{"localhost:8080", "127.0.0.1:8080", "localhost:5173"}

// CSRFConfig configures cross-origin protection of state-changing requests.
// Protection is based on Fetch metadata headers, so no token travels with
// the JSON requests.
type CSRFConfig struct {
	AuthKey        []byte
	TrustedOrigins []string
	Logger         *slog.Logger
}

// DefaultCSRFConfig trusts the local admin client origins in development.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = append([]string(nil), devOrigins...)
	}
	return cfg
}

// CSRF rejects cross-site POST, PUT and DELETE requests with a 403
// csrf_failed error. Safe methods pass through.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []csrf.Option{
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "unknown"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			logger.Warn("cross-site request rejected",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"),
			)
			WriteAPIError(w, http.StatusForbidden, "csrf_failed", "Cross-site request rejected", nil)
		})),
	}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}
