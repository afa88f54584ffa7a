// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// maxLockout caps the doubling lockout duration.
const maxLockout = 24 * time.Hour

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login requests per second per client IP.
	IPRateLimit float64
	IPBurst     int

	// MaxFailedAttempts within AttemptWindow locks the account for
	// LockoutDuration. Each further lockout doubles the duration.
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	AttemptWindow     time.Duration

	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// DefaultLoginProtectionConfig allows one login every two seconds per IP
// and locks an account for 15 minutes after 5 failures.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// failures tracks the failed logins of one username.
type failures struct {
	count       int
	first       time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection combines per-IP rate limiting of the login endpoint with
// lockout of accounts that keep failing. Usernames are matched exactly, the
// same way the store looks them up.
type LoginProtection struct {
	ips *limiterCache[string]
	cfg LoginProtectionConfig
	now func() time.Time

	mu       sync.Mutex
	accounts map[string]*failures
}

// NewLoginProtection fills zero config values from the defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &LoginProtection{
		ips:      newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		cfg:      cfg,
		now:      now,
		accounts: make(map[string]*failures),
	}
}

// AllowIP reports whether another login request from ip is allowed now.
func (lp *LoginProtection) AllowIP(ip string) bool {
	return lp.ips.get(ip).Allow()
}

// Locked returns the remaining lockout of username, if any.
func (lp *LoginProtection) Locked(username string) (time.Duration, bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	f, ok := lp.accounts[username]
	if !ok {
		return 0, false
	}
	if remaining := f.lockedUntil.Sub(lp.now()); remaining > 0 {
		return remaining, true
	}
	return 0, false
}

// Fail records a failed login and reports whether it locked the account.
func (lp *LoginProtection) Fail(username string) (time.Duration, bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	f, ok := lp.accounts[username]
	if !ok {
		f = &failures{}
		lp.accounts[username] = f
	}
	if f.count == 0 || now.Sub(f.first) > lp.cfg.AttemptWindow {
		f.count, f.first = 0, now
	}
	f.count++

	if f.count < lp.cfg.MaxFailedAttempts {
		return 0, false
	}

	lockout := lp.cfg.LockoutDuration
	for i := 0; i < f.lockouts && lockout < maxLockout; i++ {
		lockout *= 2
	}
	lockout = min(lockout, maxLockout)
	f.lockedUntil = now.Add(lockout)
	f.lockouts++
	f.count = 0

	slog.Warn("account locked after failed logins", "username", username, "lockouts", f.lockouts, "duration", lockout)
	return lockout, true
}

// Succeed forgets the failures of username.
func (lp *LoginProtection) Succeed(username string) {
	lp.mu.Lock()
	delete(lp.accounts, username)
	lp.mu.Unlock()
}

// Remaining returns how many failures username has left before a lockout.
func (lp *LoginProtection) Remaining(username string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	f, ok := lp.accounts[username]
	if !ok || f.count == 0 || lp.now().Sub(f.first) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-f.count, 0)
}

// Prune forgets accounts whose lockout and attempt window have both passed,
// and drops the IP limiters once more than maxSize clients are tracked.
// It reports whether anything was removed.
func (lp *LoginProtection) Prune(maxSize int) bool {
	pruned := lp.ips.clearIfExceeds(maxSize)

	now := lp.now()
	lp.mu.Lock()
	for username, f := range lp.accounts {
		if now.After(f.lockedUntil) && now.Sub(f.first) > lp.cfg.AttemptWindow {
			delete(lp.accounts, username)
			pruned = true
		}
	}
	lp.mu.Unlock()
	return pruned
}

// Middleware rate limits POST requests per client IP. Apply it to the
// login route.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				if ip := ClientIP(r); !lp.AllowIP(ip) {
					slog.Warn("login rate limit exceeded", "ip", ip)
					WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
						"Too many login attempts. Please wait a moment and try again.", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
