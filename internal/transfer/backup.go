// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer handles backup export and import of the site document
// and the CSV export of soil lab history.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/store"
)

// MaxBackupSize bounds an uploaded backup file.
const MaxBackupSize = 20 << 20

// Notification texts shown after an import.
const (
	MsgImportSuccess = "Data imported successfully"
	MsgInvalidBackup = "Invalid backup file"
	MsgParseBackup   = "Failed to parse backup file"
)

var (
	// ErrInvalidBackup is returned for JSON that does not look like a backup.
	ErrInvalidBackup = errors.New("invalid backup file")
	// ErrParseBackup is returned when the file is not valid JSON.
	ErrParseBackup = errors.New("failed to parse backup file")
)

// BackupFilename returns the download name of a backup taken at t.
func BackupFilename(t time.Time) string {
	return "agrisite-backup-" + t.Format("2006-01-02") + ".json"
}

// Exporter writes backups of a store.
type Exporter struct {
	store *store.Store
}

// NewExporter creates a new Exporter instance.
func NewExporter(st *store.Store) *Exporter {
	return &Exporter{store: st}
}

// Export returns the current document and its download file name.
func (e *Exporter) Export() ([]byte, string, error) {
	data, err := e.store.Export()
	if err != nil {
		return nil, "", fmt.Errorf("exporting site data: %w", err)
	}
	return data, BackupFilename(e.store.Now()), nil
}

// Importer restores backups into a store.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewImporter creates a new Importer instance.
func NewImporter(st *store.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: st, logger: logger}
}

// Import reads a backup from r and replaces the whole document with it. A
// backup must be a JSON object with both a users and a home field. The
// outcome is reported through the store's notifications; on failure the
// document is left untouched.
func (i *Importer) Import(ctx context.Context, r io.Reader) error {
	raw, err := io.ReadAll(io.LimitReader(r, MaxBackupSize+1))
	if err != nil {
		return i.fail(MsgParseBackup, fmt.Errorf("%w: %v", ErrParseBackup, err))
	}
	if len(raw) > MaxBackupSize {
		return i.fail(MsgInvalidBackup, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidBackup, MaxBackupSize))
	}

	if err := sniff(raw); err != nil {
		msg := MsgInvalidBackup
		if errors.Is(err, ErrParseBackup) {
			msg = MsgParseBackup
		}
		return i.fail(msg, err)
	}

	data, err := store.Merge(raw, store.Defaults(), i.store.Now())
	if err != nil {
		return i.fail(MsgParseBackup, fmt.Errorf("%w: %v", ErrParseBackup, err))
	}

	if err := i.store.Apply(ctx, store.ReplaceAll{Data: data}); err != nil {
		i.store.Notify("Failed to save imported data", notify.LevelError)
		return fmt.Errorf("applying backup: %w", err)
	}

	i.logger.Info("backup imported", "posts", len(data.Blog), "users", len(data.Users))
	i.store.Notify(MsgImportSuccess, notify.LevelSuccess)
	return nil
}

// Reject reports an upload that could not be read as an invalid backup.
func (i *Importer) Reject(err error) error {
	return i.fail(MsgInvalidBackup, fmt.Errorf("%w: %v", ErrInvalidBackup, err))
}

func (i *Importer) fail(msg string, err error) error {
	i.logger.Warn("backup import rejected", "error", err)
	i.store.Notify(msg, notify.LevelError)
	return err
}

// sniff checks the minimal structure of a backup.
func sniff(raw []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: not a JSON object", ErrInvalidBackup)
		}
		return fmt.Errorf("%w: %v", ErrParseBackup, err)
	}
	for _, field := range []string{"users", "home"} {
		if _, ok := top[field]; !ok {
			return fmt.Errorf("%w: missing %q", ErrInvalidBackup, field)
		}
	}
	return nil
}
