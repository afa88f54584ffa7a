// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"sync"
)

// VisitTracker remembers which pages a browser session has already been
// counted for.
type VisitTracker interface {
	// MarkVisited records a visit and reports whether it is the first one
	// for pageID in this session.
	MarkVisited(ctx context.Context, pageID string) bool
}

// MemoryVisits is a VisitTracker for a single session held in memory.
type MemoryVisits struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewMemoryVisits returns an empty session.
func NewMemoryVisits() *MemoryVisits {
	return &MemoryVisits{seen: make(map[string]bool)}
}

// MarkVisited implements VisitTracker.
func (v *MemoryVisits) MarkVisited(_ context.Context, pageID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen[pageID] {
		return false
	}
	v.seen[pageID] = true
	return true
}
