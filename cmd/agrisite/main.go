// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/agrisite/internal/ai"
	"github.com/olegiv/agrisite/internal/assistant"
	"github.com/olegiv/agrisite/internal/config"
	"github.com/olegiv/agrisite/internal/geoip"
	"github.com/olegiv/agrisite/internal/handler"
	"github.com/olegiv/agrisite/internal/logging"
	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/scheduler"
	"github.com/olegiv/agrisite/internal/session"
	"github.com/olegiv/agrisite/internal/soillab"
	"github.com/olegiv/agrisite/internal/storage"
	"github.com/olegiv/agrisite/internal/store"
	"github.com/olegiv/agrisite/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   string
	appGitCommit string
	appBuildTime string
)

// eventLogSize is how many log events the dashboard can show.
const eventLogSize = 200

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "agrisite - organic farming consultancy website\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_STORAGE          Storage: file|memory|sqlite|mysql|redis (default: file)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_DATA_DIR         Data directory for file storage (default: ./data)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_DB_PATH          SQLite database path (default: ./data/agrisite.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_MYSQL_DSN        MySQL DSN (required for mysql storage)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_REDIS_URL        Redis URL (required for redis storage)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_AI_PROVIDER      AI provider: openai|groq|ollama|claude (default: openai)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_AI_API_KEY       AI provider API key (AI features are off without it)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGRISITE_GEOIP_DB_PATH    GeoLite2-City.mmdb path (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}.WithDefaults()

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	// Log events are also kept in memory for the admin dashboard
	events := logging.NewEventLog(eventLogSize)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandlerWithLevel(textHandler, events, slog.LevelInfo))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage
	backend, db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing storage", "error", err)
		}
		if db != nil {
			if err := db.Close(); err != nil {
				slog.Error("error closing database connection", "error", err)
			}
		}
	}()
	slog.Info("storage ready", "backend", cfg.Storage, "key", backend.Key())

	// Notifications and the site document
	notifications := notify.NewQueue(notify.DefaultTTL)
	defer notifications.Close()

	st, err := store.Open(ctx, backend,
		store.WithLogger(logger),
		store.WithNotifier(notifications),
	)
	if err != nil {
		return fmt.Errorf("opening site data: %w", err)
	}

	// Follow writes made by other instances sharing the backend
	listener := store.NewListener(st, logger)
	if err := listener.Start(ctx); err != nil {
		return fmt.Errorf("starting storage listener: %w", err)
	}
	defer listener.Stop()

	// AI provider
	provider, err := ai.New(ai.Config{
		Provider: cfg.AIProvider,
		APIKey:   cfg.AIAPIKey,
		Model:    cfg.AIModel,
		BaseURL:  cfg.AIBaseURL,
	})
	if err != nil {
		return fmt.Errorf("configuring AI provider: %w", err)
	}
	if cfg.AIEnabled() {
		slog.Info("AI provider configured", "provider", provider.ID())
	} else {
		slog.Warn("AI features disabled: no API key configured", "provider", cfg.AIProvider)
	}

	// GeoIP lookups for the soil lab location fallback
	geoLookup := geoip.NewLookup()
	if err := geoLookup.Init(cfg.GeoIPDBPath); err != nil {
		slog.Warn("GeoIP database not loaded", "path", cfg.GeoIPDBPath, "error", err)
	}
	slog.Info("GeoIP location fallback", "enabled", geoLookup.Enabled())
	defer func() { _ = geoLookup.Close() }()

	analyzer := soillab.NewAnalyzer(provider, st,
		soillab.WithLocator(geoLookup),
		soillab.WithLogger(logger),
	)
	farmAssistant := assistant.New(provider, st, logger)

	// Sessions live in SQLite when that backend is used
	var sessionDB *sql.DB
	if cfg.Storage == config.StorageSQLite {
		sessionDB = db
	}
	sessionManager := session.New(sessionDB, cfg.IsDevelopment())
	slog.Info("session manager initialized", "persistent", sessionDB != nil)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	publicLimiter := middleware.NewGlobalRateLimiter(2, 10)

	// Maintenance jobs
	sched := scheduler.New(logger)
	jobs := []scheduler.Job{
		scheduler.TrashPurgeJob(st, cfg.TrashPurgeSchedule, logger),
		scheduler.LimiterPruneJob(logger, publicLimiter, loginProtection),
	}
	if cfg.GeoIPEnabled() {
		jobs = append(jobs, scheduler.GeoIPReloadJob(geoLookup))
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	r := handler.NewRouter(handler.Deps{
		Store:           st,
		Sessions:        sessionManager,
		Notifier:        notifications,
		Events:          events,
		Analyzer:        analyzer,
		Assistant:       farmAssistant,
		LoginProtection: loginProtection,
		PublicLimiter:   publicLimiter,
		CSRFKey:         []byte(cfg.SessionSecret),
		IsDevelopment:   cfg.IsDevelopment(),
		Version:         versionInfo,
		AITimeout:       handler.DefaultAITimeout,
		RequestLogging:  cfg.IsDevelopment(),
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       30 * time.Second, // Photo and backup uploads
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      handler.DefaultAITimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openBackend opens the configured storage backend. SQL backends also
// return their database handle, which the caller closes.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, *sql.DB, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemory(cfg.StorageKey), nil, nil

	case config.StorageFile:
		backend, err := storage.NewFile(cfg.DataDir, cfg.StorageKey, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file storage: %w", err)
		}
		return backend, nil, nil

	case config.StorageSQLite:
		slog.Info("initializing database", "path", cfg.DBPath)
		db, err := storage.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing database: %w", err)
		}
		if err := storage.Migrate(db, storage.DialectSQLite); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return storage.NewSQL(db, storage.DialectSQLite, sqlOptions(cfg, logger)), db, nil

	case config.StorageMySQL:
		db, err := storage.NewMySQLDB(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to mysql: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("connecting to mysql: %w", err)
		}
		if err := storage.Migrate(db, storage.DialectMySQL); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return storage.NewSQL(db, storage.DialectMySQL, sqlOptions(cfg, logger)), db, nil

	case config.StorageRedis:
		opts := storage.DefaultRedisOptions()
		opts.URL = cfg.RedisURL
		opts.Prefix = cfg.RedisPrefix
		opts.Key = cfg.StorageKey
		opts.Logger = logger
		backend, err := storage.NewRedis(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return backend, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}

func sqlOptions(cfg *config.Config, logger *slog.Logger) storage.SQLOptions {
	return storage.SQLOptions{
		Key:          cfg.StorageKey,
		PollInterval: cfg.SyncPollInterval,
		Logger:       logger,
	}
}
