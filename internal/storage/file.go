// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const fileExt = ".json"

// File stores the document as <dir>/<key>.json. Several processes may
// share the directory; Watch reports files rewritten by the others.
type File struct {
	dir    string
	key    string
	logger *slog.Logger

	mu     sync.Mutex
	seen   map[string][sha256.Size]byte // last content hash written or observed per key
	closed bool
}

// NewFile creates the data directory if needed and returns a file backend.
func NewFile(dir, key string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &File{
		dir:    dir,
		key:    key,
		logger: logger,
		seen:   make(map[string][sha256.Size]byte),
	}, nil
}

// Key implements Backend.
func (f *File) Key() string { return f.key }

// Path returns the file holding the document.
func (f *File) Path() string {
	return filepath.Join(f.dir, f.key+fileExt)
}

// Load implements Backend.
func (f *File) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Path(), err)
	}
	return data, nil
}

// Save implements Backend. The file is replaced atomically.
func (f *File) Save(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	tmp, err := os.CreateTemp(f.dir, "."+f.key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	f.seen[f.key] = sha256.Sum256(data)
	if err := os.Rename(tmpName, f.Path()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", f.Path(), err)
	}
	return nil
}

// Clear implements Backend.
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	delete(f.seen, f.key)
	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", f.Path(), err)
	}
	return nil
}

// Watch implements Backend.
func (f *File) Watch(ctx context.Context) (<-chan Change, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", f.dir, err)
	}

	out := make(chan Change, 1)
	go func() {
		defer close(out)
		defer func() { _ = w.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if c, ok := f.handleEvent(event); ok {
					offer(out, c)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Warn("file storage watch error", "dir", f.dir, "error", err)
			}
		}
	}()

	return out, nil
}

// handleEvent turns a filesystem event into a change, skipping temp files
// and content this instance wrote or already reported.
func (f *File) handleEvent(event fsnotify.Event) (Change, bool) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, fileExt) {
		return Change{}, false
	}
	key := strings.TrimSuffix(base, fileExt)

	f.mu.Lock()
	defer f.mu.Unlock()

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, err := os.Stat(event.Name); errors.Is(err, fs.ErrNotExist) {
			if _, known := f.seen[key]; !known {
				return Change{}, false
			}
			delete(f.seen, key)
			return Change{Key: key}, true
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return Change{}, false
	}

	data, err := os.ReadFile(event.Name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("file storage read failed", "path", event.Name, "error", err)
		}
		return Change{}, false
	}

	sum := sha256.Sum256(data)
	if prev, ok := f.seen[key]; ok && prev == sum {
		return Change{}, false
	}
	f.seen[key] = sum
	return Change{Key: key, Value: data}, true
}

// Close implements Backend.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
