// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
)

// Default schedules of the maintenance jobs.
const (
	DefaultTrashPurgeSchedule   = "@hourly"
	DefaultGeoIPReloadSchedule  = "30 3 * * *"
	DefaultLimiterPruneSchedule = "@every 10m"
)

// maxTrackedClients is the limiter size that triggers a prune.
const maxTrackedClients = 10000

// TrashPurger removes blog posts whose trash retention has expired.
type TrashPurger interface {
	PurgeExpiredTrash(ctx context.Context) (int, error)
}

// Reloader reloads an on-disk database.
type Reloader interface {
	Reload() error
}

// Pruner drops per-client state once it grows past maxSize entries and
// reports whether it removed anything.
type Pruner interface {
	Prune(maxSize int) bool
}

// TrashPurgeJob evicts expired trash from the live document. The document is
// only saved when something was removed.
func TrashPurgeJob(p TrashPurger, schedule string, logger *slog.Logger) Job {
	if schedule == "" {
		schedule = DefaultTrashPurgeSchedule
	}
	return Job{
		Name:        "trash-purge",
		Description: "Permanently delete blog posts trashed more than 30 days ago",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			n, err := p.PurgeExpiredTrash(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged expired trash", "removed", n)
			}
			return nil
		},
	}
}

// GeoIPReloadJob reloads the GeoIP database so updated files are picked up.
func GeoIPReloadJob(r Reloader) Job {
	return Job{
		Name:        "geoip-reload",
		Description: "Reload the GeoIP database from disk",
		Schedule:    DefaultGeoIPReloadSchedule,
		Run: func(context.Context) error {
			return r.Reload()
		},
	}
}

// LimiterPruneJob keeps the memory of the rate limiters and login lockout
// tracking bounded.
func LimiterPruneJob(logger *slog.Logger, pruners ...Pruner) Job {
	return Job{
		Name:        "limiter-prune",
		Description: "Drop rate limiter state when too many clients are tracked",
		Schedule:    DefaultLimiterPruneSchedule,
		Run: func(context.Context) error {
			for _, p := range pruners {
				if p.Prune(maxTrackedClients) {
					logger.Info("rate limiter state pruned", "limiter", fmt.Sprintf("%T", p))
				}
			}
			return nil
		},
	}
}
