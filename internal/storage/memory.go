// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"sync"
)

// Hub is an in-process key space shared by several Memory backends, the
// way browser tabs share one origin's local storage.
type Hub struct {
	mu      sync.Mutex
	values  map[string][]byte
	members map[*Memory]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		values:  make(map[string][]byte),
		members: make(map[*Memory]struct{}),
	}
}

// Open returns a new backend bound to key. Each call is an independent
// instance that sees the others' writes through Watch.
func (h *Hub) Open(key string) *Memory {
	m := &Memory{hub: h, key: key}
	h.mu.Lock()
	h.members[m] = struct{}{}
	h.mu.Unlock()
	return m
}

// broadcast sends a change to every member except from. Caller holds h.mu.
func (h *Hub) broadcast(from *Memory, c Change) {
	for m := range h.members {
		if m == from {
			continue
		}
		for _, ch := range m.watchers {
			offer(ch, Change{Key: c.Key, Value: cloneBytes(c.Value)})
		}
	}
}

// Memory is a Backend stored in a Hub.
type Memory struct {
	hub      *Hub
	key      string
	watchers []chan Change
	closed   bool
}

// NewMemory returns a standalone in-memory backend with its own hub.
func NewMemory(key string) *Memory {
	return NewHub().Open(key)
}

// Key implements Backend.
func (m *Memory) Key() string { return m.key }

// Load implements Backend.
func (m *Memory) Load(_ context.Context) ([]byte, error) {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.hub.values[m.key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

// Save implements Backend.
func (m *Memory) Save(_ context.Context, data []byte) error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.hub.values[m.key] = cloneBytes(data)
	m.hub.broadcast(m, Change{Key: m.key, Value: data})
	return nil
}

// Clear implements Backend.
func (m *Memory) Clear(_ context.Context) error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.hub.values, m.key)
	m.hub.broadcast(m, Change{Key: m.key})
	return nil
}

// Watch implements Backend.
func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 1)

	m.hub.mu.Lock()
	if m.closed {
		m.hub.mu.Unlock()
		return nil, ErrClosed
	}
	m.watchers = append(m.watchers, ch)
	m.hub.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.hub.mu.Lock()
		defer m.hub.mu.Unlock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

// Close implements Backend. Open watch channels are closed.
func (m *Memory) Close() error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, ch := range m.watchers {
		close(ch)
	}
	m.watchers = nil
	delete(m.hub.members, m)
	return nil
}
