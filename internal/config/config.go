// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/agrisite/internal/scheduler"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMySQL  = "mysql"
	StorageRedis  = "redis"
)

// AI providers.
const (
	AIProviderOpenAI = "openai"
	AIProviderGroq   = "groq"
	AIProviderOllama = "ollama"
	AIProviderClaude = "claude"
)

var (
	storageBackends = []string{StorageMemory, StorageFile, StorageSQLite, StorageMySQL, StorageRedis}
	aiProviders     = []string{AIProviderOpenAI, AIProviderGroq, AIProviderOllama, AIProviderClaude}
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SessionSecret string `env:"AGRISITE_SESSION_SECRET,required"`
	ServerHost    string `env:"AGRISITE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"AGRISITE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"AGRISITE_ENV" envDefault:"development"`
	LogLevel      string `env:"AGRISITE_LOG_LEVEL" envDefault:"info"`

	// Storage configuration
	Storage          string        `env:"AGRISITE_STORAGE" envDefault:"file"`
	StorageKey       string        `env:"AGRISITE_STORAGE_KEY" envDefault:"agrisite_data"`
	DataDir          string        `env:"AGRISITE_DATA_DIR" envDefault:"./data"`
	DBPath           string        `env:"AGRISITE_DB_PATH" envDefault:"./data/agrisite.db"`
	MySQLDSN         string        `env:"AGRISITE_MYSQL_DSN"`
	RedisURL         string        `env:"AGRISITE_REDIS_URL"`
	RedisPrefix      string        `env:"AGRISITE_REDIS_PREFIX" envDefault:"agrisite:"`
	SyncPollInterval time.Duration `env:"AGRISITE_SYNC_POLL_INTERVAL" envDefault:"2s"` // SQL backend change polling

	// AI configuration
	AIProvider string `env:"AGRISITE_AI_PROVIDER" envDefault:"openai"`
	AIAPIKey   string `env:"AGRISITE_AI_API_KEY"`
	AIModel    string `env:"AGRISITE_AI_MODEL"`   // Empty selects the provider default
	AIBaseURL  string `env:"AGRISITE_AI_BASE_URL"` // Overrides the provider endpoint

	// GeoIP configuration
	GeoIPDBPath string `env:"AGRISITE_GEOIP_DB_PATH"` // Path to GeoLite2-City.mmdb file

	// Scheduler configuration
	TrashPurgeSchedule string `env:"AGRISITE_TRASH_PURGE_SCHEDULE" envDefault:"@hourly"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// AIEnabled returns true if an AI provider can be used. Ollama runs locally
// and needs no API key.
func (c Config) AIEnabled() bool {
	return c.AIAPIKey != "" || c.AIProvider == AIProviderOllama
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("AGRISITE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("AGRISITE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("AGRISITE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	cfg.Storage = strings.ToLower(cfg.Storage)
	if !slices.Contains(storageBackends, cfg.Storage) {
		return nil, fmt.Errorf("AGRISITE_STORAGE %q is not one of %s", cfg.Storage, strings.Join(storageBackends, ", "))
	}
	if cfg.Storage == StorageMySQL && cfg.MySQLDSN == "" {
		return nil, fmt.Errorf("AGRISITE_MYSQL_DSN is required when AGRISITE_STORAGE=mysql")
	}
	if cfg.Storage == StorageRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("AGRISITE_REDIS_URL is required when AGRISITE_STORAGE=redis")
	}
	if cfg.StorageKey == "" {
		return nil, fmt.Errorf("AGRISITE_STORAGE_KEY must not be empty")
	}

	cfg.AIProvider = strings.ToLower(cfg.AIProvider)
	if !slices.Contains(aiProviders, cfg.AIProvider) {
		return nil, fmt.Errorf("AGRISITE_AI_PROVIDER %q is not one of %s", cfg.AIProvider, strings.Join(aiProviders, ", "))
	}

	if err := scheduler.ValidateSchedule(cfg.TrashPurgeSchedule); err != nil {
		return nil, fmt.Errorf("AGRISITE_TRASH_PURGE_SCHEDULE: %w", err)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
