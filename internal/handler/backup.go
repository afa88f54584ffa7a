// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/agrisite/internal/transfer"
)

// BackupHandler handles backup download and restore.
type BackupHandler struct {
	exporter *transfer.Exporter
	importer *transfer.Importer
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(exporter *transfer.Exporter, importer *transfer.Importer) *BackupHandler {
	return &BackupHandler{exporter: exporter, importer: importer}
}

// Download handles GET /admin/api/backup.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.exporter.Export()
	if err != nil {
		logAndInternalError(w, "failed to export backup", "error", err)
		return
	}

	slog.Info("backup exported", "bytes", len(data), "user_id", userID(r))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

// Restore handles POST /admin/api/backup. The backup is either the raw
// JSON body or a multipart upload in the "file" field. A rejected backup
// leaves the site untouched.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	body, err := backupReader(w, r)
	if err != nil {
		_ = h.importer.Reject(err)
		WriteBadRequest(w, transfer.MsgInvalidBackup, nil)
		return
	}
	defer func() { _ = body.Close() }()

	err = h.importer.Import(r.Context(), body)
	switch {
	case errors.Is(err, transfer.ErrInvalidBackup):
		WriteBadRequest(w, transfer.MsgInvalidBackup, nil)
		return
	case errors.Is(err, transfer.ErrParseBackup):
		WriteBadRequest(w, transfer.MsgParseBackup, nil)
		return
	case err != nil:
		logAndInternalError(w, "failed to import backup", "error", err)
		return
	}

	slog.Info("backup restored", "user_id", userID(r))
	WriteSuccess(w, map[string]string{"message": transfer.MsgImportSuccess}, nil)
}

func backupReader(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, transfer.MaxBackupSize+1<<20)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(transfer.MaxBackupSize); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	return file, nil
}
