// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/ai"
	"github.com/olegiv/agrisite/internal/assistant"
	"github.com/olegiv/agrisite/internal/logging"
	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/session"
	"github.com/olegiv/agrisite/internal/soillab"
	"github.com/olegiv/agrisite/internal/store"
	"github.com/olegiv/agrisite/internal/testutil"
	"github.com/olegiv/agrisite/internal/version"
)

// fakeProvider answers every AI request with a canned reply.
type fakeProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []ai.Request
}

func (f *fakeProvider) ID() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

func (f *fakeProvider) set(reply string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply, f.err = reply, err
}

type testEnv struct {
	t        *testing.T
	store    *store.Store
	queue    *notify.Queue
	provider *fakeProvider
	router   http.Handler
}

// Test accounts added on top of the seeded admin.
const (
	adminUser    = "admin"
	adminPass    = "admin123"
	managerUser  = "meena"
	editorUser   = "vikram"
	testPassword = "secret99"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	queue := notify.NewQueue(time.Minute)
	t.Cleanup(queue.Close)

	logger := testutil.TestLoggerSilent()
	st := testutil.TestStore(t, store.WithNotifier(queue))

	for _, u := range []model.User{
		{Username: managerUser, Password: testPassword, Role: model.RoleManager},
		{Username: editorUser, Password: testPassword, Role: model.RoleEditor},
	} {
		_, err := st.AddUser(context.Background(), u)
		require.NoError(t, err)
	}

	provider := &fakeProvider{}
	router := NewRouter(Deps{
		Store:     st,
		Sessions:  session.New(nil, true),
		Notifier:  queue,
		Events:    logging.NewEventLog(50),
		Analyzer:  soillab.NewAnalyzer(provider, st),
		Assistant: assistant.New(provider, st, logger),
		LoginProtection: middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit:       1000,
			IPBurst:           1000,
			MaxFailedAttempts: 3,
		}),
		PublicLimiter: middleware.NewGlobalRateLimiter(1000, 1000),
		CSRFKey:       bytes.Repeat([]byte("k"), 32),
		IsDevelopment: true,
		Version:       version.Info{Version: "test"},
		AITimeout:     5 * time.Second,
	})

	return &testEnv{t: t, store: st, queue: queue, provider: provider, router: router}
}

// client keeps the session cookie between requests.
type client struct {
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) client() *client {
	return &client{env: e, cookies: make(map[string]*http.Cookie)}
}

// loggedIn returns a client with an authenticated session.
func (e *testEnv) loggedIn(username, password string) *client {
	e.t.Helper()
	c := e.client()
	rr := c.postJSON("/login", map[string]string{"username": username, "password": password})
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())
	return c
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.env.router.ServeHTTP(rr, req)

	for _, ck := range rr.Result().Cookies() {
		if ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rr
}

func (c *client) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.send(req)
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil, "")
}

func (c *client) postJSON(path string, v any) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, jsonBody(c.env.t, v), "application/json")
}

func (c *client) putJSON(path string, v any) *httptest.ResponseRecorder {
	return c.do(http.MethodPut, path, jsonBody(c.env.t, v), "application/json")
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return strings.NewReader(s)
	}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// envelope is the decoded form of every JSON API response.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *Meta           `json:"meta"`
	Error *ErrorDetail    `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

// decodeData unmarshals the data field of a success response into v.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	env := decodeEnvelope(t, rr)
	require.Nil(t, env.Error, rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// errorCode returns the error code of a failure response.
func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rr)
	require.NotNil(t, env.Error, rr.Body.String())
	return env.Error.Code
}

// hasToast reports whether a notification with this level and message is queued.
func (e *testEnv) hasToast(level, message string) bool {
	for _, n := range e.queue.List() {
		if n.Level == level && n.Message == message {
			return true
		}
	}
	return false
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
