// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Timeout bounds routes that wait on the AI provider. The handler writes
// into a buffer that is copied to the client when it finishes in time.
// Otherwise the client gets a JSON 503 timeout error and anything the
// handler writes later is discarded.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			buf := &bufferedWriter{header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
						return
					}
					close(done)
				}()
				next.ServeHTTP(buf, r.WithContext(ctx))
			}()

			select {
			case p := <-panicked:
				// Re-raised on the serving goroutine so the recoverer sees it
				panic(p)
			case <-done:
				buf.copyTo(w)
			case <-ctx.Done():
				buf.abandon()
				slog.Warn("request timed out", "method", r.Method, "path", r.URL.Path, "timeout", timeout)
				WriteAPIError(w, http.StatusServiceUnavailable, "timeout", "The request took too long. Please try again.", nil)
			}
		})
	}
}

// bufferedWriter collects a handler's response until Timeout decides
// whether to send it.
type bufferedWriter struct {
	header http.Header

	mu       sync.Mutex
	code     int
	body     bytes.Buffer
	timedOut bool
}

func (bw *bufferedWriter) Header() http.Header { return bw.header }

func (bw *bufferedWriter) WriteHeader(code int) {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.code == 0 && !bw.timedOut {
		bw.code = code
	}
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if bw.code == 0 {
		bw.code = http.StatusOK
	}
	return bw.body.Write(b)
}

func (bw *bufferedWriter) abandon() {
	bw.mu.Lock()
	bw.timedOut = true
	bw.mu.Unlock()
}

func (bw *bufferedWriter) copyTo(w http.ResponseWriter) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	dst := w.Header()
	for k, v := range bw.header {
		dst[k] = v
	}
	code := bw.code
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	_, _ = w.Write(bw.body.Bytes())
}
