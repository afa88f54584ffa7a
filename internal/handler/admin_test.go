// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/store"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/transfer"
)

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.AddSubscriber(context.Background(), "farmer@example.com")
	require.NoError(t, err)
	c := env.client()
	c.postJSON("/api/visits/home", "")

	rr := env.loggedIn(editorUser, testPassword).get("/admin/api/dashboard")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var d Dashboard
	decodeData(t, rr, &d)
	seeded := store.Defaults().TrafficStats
	var seededTotal int64
	for _, n := range seeded {
		seededTotal += n
	}
	assert.Equal(t, seeded[model.PageHome]+1, d.Traffic[model.PageHome])
	assert.Equal(t, seededTotal+1, d.TotalVisits)
	assert.Equal(t, 1, d.Counts.Subscribers)
	assert.Equal(t, 3, d.Counts.Users)
	assert.Equal(t, len(env.store.Posts()), d.Counts.Posts)
	assert.Equal(t, d.Counts.Posts, d.Counts.PublishedPosts+d.Counts.DraftPosts+d.Counts.TrashedPosts)
	assert.NotNil(t, d.Events)
}

func TestAdminSite_HidesPasswords(t *testing.T) {
	env := newTestEnv(t)

	rr := env.loggedIn(adminUser, adminPass).get("/admin/api/site")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), adminPass)
	assert.NotContains(t, rr.Body.String(), testPassword)

	var d model.SiteData
	decodeData(t, rr, &d)
	assert.Len(t, d.Users, 3)
}

func TestUpdateSection(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(editorUser, testPassword)

	body := []model.Testimonial{{ID: 11, Name: "Asha Devi", Role: "Dairy farmer", Quote: "Better fodder", Rating: 4}}
	rr := c.putJSON("/admin/api/sections/testimonials", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res SectionResult
	decodeData(t, rr, &res)
	assert.Equal(t, "testimonials", res.Section)
	assert.Equal(t, body, env.store.Data().Testimonials)
	assert.True(t, env.hasToast(notify.LevelSuccess, "Changes saved"))
}

func TestUpdateSection_Errors(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		section  string
		body     string
		want     int
	}{
		{"unknown section", editorUser, testPassword, "pricing", `{}`, http.StatusNotFound},
		{"unknown field", editorUser, testPassword, "home", `{"heroTitel":"x"}`, http.StatusBadRequest},
		{"wrong shape", editorUser, testPassword, "testimonials", `{"name":"x"}`, http.StatusBadRequest},
		{"editor replaces users", editorUser, testPassword, "users", `[]`, http.StatusForbidden},
		{"manager replaces users", managerUser, testPassword, "users", `[]`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			before := env.store.Data()

			rr := env.loggedIn(tt.username, tt.password).putJSON("/admin/api/sections/"+tt.section, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.Equal(t, before, env.store.Data())
		})
	}
}

func TestCollections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.AddSubscriber(ctx, "farmer@example.com")
	require.NoError(t, err)
	_, err = env.store.AddContactMessage(ctx, model.ContactMessage{Name: "Ravi", Email: "ravi@example.com", Message: "Hi"})
	require.NoError(t, err)
	require.NoError(t, env.store.UpsertChatSession(ctx, "s1", []model.ChatMessage{{Role: model.ChatRoleUser, Text: "Hello"}}))

	c := env.loggedIn(editorUser, testPassword)
	for path, want := range map[string]int{
		"/admin/api/subscribers": 1,
		"/admin/api/messages":    1,
		"/admin/api/chats":       1,
	} {
		rr := c.get(path)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, want, decodeEnvelope(t, rr).Meta.Total, path)
	}
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(adminUser, adminPass)

	rr := c.postJSON("/admin/api/users", map[string]string{"username": "kiran", "password": "harvest1", "role": "Editor"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created model.User
	decodeData(t, rr, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.RoleEditor, created.Role)
	assert.Empty(t, created.Password)

	rr = c.postJSON("/admin/api/users", map[string]string{"username": "kiran", "password": "harvest2", "role": "editor"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	var users []model.User
	decodeData(t, c.get("/admin/api/users"), &users)
	require.Len(t, users, 4)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}

	env.loggedIn("kiran", "harvest1")

	rr = c.do(http.MethodDelete, "/admin/api/users/"+itoa(created.ID), nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	_, ok := env.store.UserByID(created.ID)
	assert.False(t, ok)

	rr = c.do(http.MethodDelete, "/admin/api/users/"+itoa(created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUsers_Validation(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(adminUser, adminPass)

	rr := c.postJSON("/admin/api/users", map[string]string{"username": "a b", "password": "123", "role": "owner"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	details := decodeEnvelope(t, rr).Error.Details
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "role")
}

func TestUsers_CannotDeleteSelf(t *testing.T) {
	env := newTestEnv(t)
	admin, ok := env.store.FindUser(adminUser)
	require.True(t, ok)

	rr := env.loggedIn(adminUser, adminPass).do(http.MethodDelete, "/admin/api/users/"+itoa(admin.ID), nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	_, ok = env.store.UserByID(admin.ID)
	assert.True(t, ok)
}

func TestBackup_DownloadAndRestore(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedIn(adminUser, adminPass)

	rr := c.get("/admin/api/backup")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "agrisite-backup-")
	backup := rr.Body.Bytes()

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(backup, &doc))
	assert.Contains(t, doc, "users")

	_, err := env.store.AddSubscriber(context.Background(), "late@example.com")
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "backup.json")
	require.NoError(t, err)
	_, err = fw.Write(backup)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr = c.do(http.MethodPost, "/admin/api/backup", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Empty(t, env.store.Data().Subscribers, "restore replaces the document")
	assert.True(t, env.hasToast(notify.LevelSuccess, transfer.MsgImportSuccess))

	// The session survives because the admin account is in the backup
	assert.Equal(t, http.StatusOK, c.get("/admin/api/me").Code)
}

func TestBackup_RestoreRejected(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ctype string
		toast string
	}{
		{"missing home", `{"users":[]}`, "application/json", transfer.MsgInvalidBackup},
		{"not an object", `[1,2]`, "application/json", transfer.MsgInvalidBackup},
		{"broken json", `{"users":`, "application/json", transfer.MsgParseBackup},
		{"multipart without file", "", "multipart/form-data; boundary=x", transfer.MsgInvalidBackup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := env.loggedIn(adminUser, adminPass)
			before := env.store.Data()

			req := httptest.NewRequest(http.MethodPost, "/admin/api/backup", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.ctype)
			rr := c.send(req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.toast, decodeEnvelope(t, rr).Error.Message)
			assert.True(t, env.hasToast(notify.LevelError, tt.toast))
			assert.Equal(t, before, env.store.Data())
		})
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.AddSubscriber(context.Background(), "farmer@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, env.loggedIn(managerUser, testPassword).postJSON("/admin/api/reset", "").Code)
	require.Len(t, env.store.Data().Subscribers, 1)

	rr := env.loggedIn(adminUser, adminPass).postJSON("/admin/api/reset", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, env.store.Data().Subscribers)
	assert.Len(t, env.store.Users(), 1, "defaults only hold the seeded admin")
}
