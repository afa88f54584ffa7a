// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations
var migrations embed.FS

// Dialect names a SQL flavour, using goose's dialect names.
type Dialect string

// Supported SQL dialects.
const (
	DialectSQLite Dialect = "sqlite3"
	DialectMySQL  Dialect = "mysql"
)

// DefaultPollInterval is how often SQL.Watch checks for foreign writes.
const DefaultPollInterval = 2 * time.Second

var migrateMu sync.Mutex

// NewSQLiteDB opens a SQLite database and configures it for concurrent access.
func NewSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA busy_timeout=5000",  // Wait 5s when database is locked
		"PRAGMA synchronous=NORMAL", // Good balance of safety and speed
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// NewMySQLDB opens a MySQL database from a go-sql-driver DSN.
func NewMySQLDB(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// Migrate runs all pending migrations for the dialect.
func Migrate(db *sql.DB, dialect Dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	dir := "migrations/sqlite"
	if dialect == DialectMySQL {
		dir = "migrations/mysql"
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// SQLOptions configures a SQL backend.
type SQLOptions struct {
	Key          string
	PollInterval time.Duration
	Logger       *slog.Logger
}

// SQL stores documents in the site_documents table. Every write bumps the
// row version and records the writing instance, which Watch polls for.
type SQL struct {
	db       *sql.DB
	dialect  Dialect
	key      string
	origin   string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewSQL returns a SQL backend on an already migrated database.
func NewSQL(db *sql.DB, dialect Dialect, opts SQLOptions) *SQL {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SQL{
		db:       db,
		dialect:  dialect,
		key:      opts.Key,
		origin:   uuid.NewString(),
		interval: opts.PollInterval,
		logger:   opts.Logger,
	}
}

// Key implements Backend.
func (s *SQL) Key() string { return s.key }

// DB returns the underlying database handle.
func (s *SQL) DB() *sql.DB { return s.db }

// Dialect returns the backend's SQL dialect.
func (s *SQL) Dialect() Dialect { return s.dialect }

// Load implements Backend.
func (s *SQL) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM site_documents WHERE doc_key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return []byte(value), nil
}

func (s *SQL) upsertQuery() string {
	if s.dialect == DialectMySQL {
		return `INSERT INTO site_documents (doc_key, value, version, origin, updated_at)
			VALUES (?, ?, 1, ?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value), version = version + 1,
				origin = VALUES(origin), updated_at = VALUES(updated_at)`
	}
	return `INSERT INTO site_documents (doc_key, value, version, origin, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(doc_key) DO UPDATE SET value = excluded.value,
			version = site_documents.version + 1,
			origin = excluded.origin, updated_at = excluded.updated_at`
}

// Save implements Backend.
func (s *SQL) Save(ctx context.Context, data []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, s.upsertQuery(), s.key, string(data), s.origin, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Clear implements Backend.
func (s *SQL) Clear(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM site_documents WHERE doc_key = ?`, s.key); err != nil {
		return fmt.Errorf("clearing document: %w", err)
	}
	return nil
}

type docVersion struct {
	version int64
	origin  string
}

// Watch implements Backend by polling row versions.
func (s *SQL) Watch(ctx context.Context) (<-chan Change, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	known, err := s.versions(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Change, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.isClosed() {
					return
				}
				current, err := s.versions(ctx)
				if err != nil {
					if ctx.Err() == nil {
						s.logger.Warn("sql storage poll failed", "error", err)
					}
					continue
				}
				for _, c := range s.diff(ctx, known, current) {
					offer(out, c)
				}
				known = current
			}
		}
	}()

	return out, nil
}

// diff returns the changes between two version snapshots that were made
// by other instances.
func (s *SQL) diff(ctx context.Context, prev, cur map[string]docVersion) []Change {
	var changes []Change
	for key, v := range cur {
		if p, ok := prev[key]; ok && p.version == v.version {
			continue
		}
		if v.origin == s.origin {
			continue
		}
		var value string
		err := s.db.QueryRowContext(ctx,
			`SELECT value FROM site_documents WHERE doc_key = ?`, key).Scan(&value)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) && ctx.Err() == nil {
				s.logger.Warn("sql storage read failed", "key", key, "error", err)
			}
			continue
		}
		changes = append(changes, Change{Key: key, Value: []byte(value)})
	}
	for key, p := range prev {
		if _, ok := cur[key]; !ok && p.origin != s.origin {
			changes = append(changes, Change{Key: key})
		}
	}
	return changes
}

func (s *SQL) versions(ctx context.Context) (map[string]docVersion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_key, version, origin FROM site_documents`)
	if err != nil {
		return nil, fmt.Errorf("polling versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]docVersion)
	for rows.Next() {
		var key string
		var v docVersion
		if err := rows.Scan(&key, &v.version, &v.origin); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		out[key] = v
	}
	return out, rows.Err()
}

func (s *SQL) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close implements Backend. The database handle is left open for its owner.
func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
