// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify holds short-lived user-facing notifications (toasts).
// Notifications are process-local, never persisted, and expire on a timer.
package notify

import (
	"sync"
	"time"
)

// Notification levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// DefaultTTL is how long a notification stays in the queue.
const DefaultTTL = 4 * time.Second

// Notification is a single toast message.
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

// Queue is an ordered list of notifications that remove themselves after
// the queue's TTL.
type Queue struct {
	ttl time.Duration

	mu     sync.Mutex
	items  []Notification
	timers map[int64]*time.Timer
	nextID int64
	closed bool
}

// NewQueue creates a queue. A non-positive ttl uses DefaultTTL.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[int64]*time.Timer),
	}
}

// Push appends a notification and schedules its removal. Unknown levels
// are treated as info.
func (q *Queue) Push(message, level string) Notification {
	switch level {
	case LevelSuccess, LevelError, LevelInfo:
	default:
		level = LevelInfo
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	n := Notification{
		ID:        q.nextID,
		Message:   message,
		Level:     level,
		CreatedAt: time.Now(),
	}
	if q.closed {
		return n
	}

	q.items = append(q.items, n)
	id := n.ID
	q.timers[id] = time.AfterFunc(q.ttl, func() {
		q.Dismiss(id)
	})
	return n
}

// List returns the pending notifications, oldest first.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of pending notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dismiss removes a notification before it expires.
func (q *Queue) Dismiss(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Close stops all timers and empties the queue. Later pushes are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.closed = true
}
