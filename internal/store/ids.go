// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"sync"
	"time"
)

// IDGen hands out millisecond timestamps as record ids. Ids are strictly
// increasing: two records created in the same millisecond get consecutive
// values instead of colliding.
type IDGen struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGen returns a generator reading the given clock.
func NewIDGen(now func() time.Time) *IDGen {
	if now == nil {
		now = time.Now
	}
	return &IDGen{now: now}
}

// Next returns the next id.
func (g *IDGen) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe makes sure future ids are greater than id, e.g. after loading
// records created by another instance.
func (g *IDGen) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
