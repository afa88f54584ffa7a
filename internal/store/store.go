// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store owns the site document: it loads and merges it from a
// storage backend, applies every mutation, writes the full document back
// after each change, and adopts documents written by other instances.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/storage"
)

// Collection caps.
const (
	MaxChatSessions     = 50
	MaxChatMessages     = 50
	MaxSoilLabRecords   = 50
	chatPreviewMaxRunes = 60
)

// DateLayout formats the human-readable dates stored on records.
const DateLayout = "Jan 2, 2006"

// Store holds the canonical in-memory document. All methods are safe for
// concurrent use; mutations are applied and saved in the order they acquire
// the store's lock.
type Store struct {
	backend  storage.Backend
	logger   *slog.Logger
	notifier *notify.Queue
	now      func() time.Time
	ids      *IDGen

	mu   sync.RWMutex
	data model.SiteData

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNotifier sets the queue Notify pushes to.
func WithNotifier(q *notify.Queue) Option {
	return func(s *Store) { s.notifier = q }
}

// Open seeds a store with the default dataset and overlays the document
// stored in backend, if any. A stored document that cannot be parsed is
// logged and ignored; a backend read failure is returned.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
		data:    Defaults(),
		subs:    make(map[chan struct{}]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = NewIDGen(s.now)

	raw, err := backend.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("loading site data: %w", err)
	}

	merged, err := Merge(raw, Defaults(), s.now())
	if err != nil {
		s.logger.Error("stored site data is corrupt, using defaults", "key", backend.Key(), "error", err)
		return s, nil
	}
	s.data = merged
	s.observeIDs()
	return s, nil
}

// Backend returns the storage backend the store writes to.
func (s *Store) Backend() storage.Backend { return s.backend }

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger { return s.logger }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// Data returns a deep copy of the current document.
func (s *Store) Data() model.SiteData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Export serializes the current document.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(s.data, "", "  ")
}

// Subscribe returns a channel signalled after every change, local or
// adopted. Signals coalesce: a slow reader sees one pending signal. Call
// the returned function to unsubscribe.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) broadcast() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// mutate applies fn to the document and saves it when fn reports a
// change. A failed save is logged and returned; the in-memory change is
// kept.
func (s *Store) mutate(ctx context.Context, fn func(d *model.SiteData) bool) error {
	s.mu.Lock()
	if !fn(&s.data) {
		s.mu.Unlock()
		return nil
	}
	err := s.saveLocked(ctx)
	s.mu.Unlock()

	s.broadcast()
	return err
}

func (s *Store) saveLocked(ctx context.Context) error {
	payload, err := json.Marshal(s.data)
	if err != nil {
		s.logger.Error("failed to encode site data", "error", err)
		return fmt.Errorf("encoding site data: %w", err)
	}
	if err := s.backend.Save(ctx, payload); err != nil {
		s.logger.Error("failed to save site data", "key", s.backend.Key(), "error", err)
		return fmt.Errorf("saving site data: %w", err)
	}
	return nil
}

// adopt replaces the document with one written elsewhere without saving it.
func (s *Store) adopt(d model.SiteData) {
	s.mu.Lock()
	s.data = d
	s.observeIDsLocked()
	s.mu.Unlock()
	s.broadcast()
}

func (s *Store) observeIDs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observeIDsLocked()
}

// observeIDsLocked keeps generated ids above every id already stored.
func (s *Store) observeIDsLocked() {
	for _, u := range s.data.Users {
		s.ids.Observe(u.ID)
	}
	for _, p := range s.data.Blog {
		s.ids.Observe(p.ID)
	}
	for _, m := range s.data.ContactMessages {
		s.ids.Observe(m.ID)
	}
	for _, sub := range s.data.Subscribers {
		s.ids.Observe(sub.ID)
	}
}

// Apply replaces the sections named by the updates, in order, and saves
// once. The payloads are not validated.
func (s *Store) Apply(ctx context.Context, updates ...Update) error {
	if len(updates) == 0 {
		return nil
	}
	return s.mutate(ctx, func(d *model.SiteData) bool {
		for _, u := range updates {
			u.apply(d)
		}
		return true
	})
}

// Reset replaces the document with the defaults and deletes the stored
// value.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.data = Defaults()
	err := s.backend.Clear(ctx)
	s.mu.Unlock()

	s.broadcast()
	if err != nil {
		s.logger.Error("failed to clear site data", "key", s.backend.Key(), "error", err)
		return fmt.Errorf("clearing site data: %w", err)
	}
	return nil
}

// RecordPageVisit counts a page view the first time pageID is seen in the
// session tracked by visits. It reports whether the counter was bumped.
func (s *Store) RecordPageVisit(ctx context.Context, visits VisitTracker, pageID string) (bool, error) {
	if !visits.MarkVisited(ctx, pageID) {
		return false, nil
	}
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		if d.TrafficStats == nil {
			d.TrafficStats = model.TrafficStats{}
		}
		d.TrafficStats[pageID]++
		return true
	})
	return true, err
}

// UpsertChatSession stores the latest messages of a conversation. An
// existing session keeps its position; a new one goes first. Only the most
// recent MaxChatMessages messages and MaxChatSessions sessions are kept.
func (s *Store) UpsertChatSession(ctx context.Context, sessionID string, messages []model.ChatMessage) error {
	if len(messages) > MaxChatMessages {
		messages = messages[len(messages)-MaxChatMessages:]
	}
	msgs := make([]model.ChatMessage, len(messages))
	copy(msgs, messages)

	return s.mutate(ctx, func(d *model.SiteData) bool {
		session := model.ChatSession{
			ID:       sessionID,
			Date:     s.now().UTC().Format(time.RFC3339),
			Messages: msgs,
			Preview:  chatPreview(msgs),
		}

		for i := range d.ChatHistory {
			if d.ChatHistory[i].ID == sessionID {
				d.ChatHistory[i] = session
				return true
			}
		}

		d.ChatHistory = append([]model.ChatSession{session}, d.ChatHistory...)
		if len(d.ChatHistory) > MaxChatSessions {
			d.ChatHistory = d.ChatHistory[:MaxChatSessions]
		}
		return true
	})
}

// chatPreview is the opening user message, shortened.
func chatPreview(msgs []model.ChatMessage) string {
	for _, m := range msgs {
		if m.Role != model.ChatRoleUser {
			continue
		}
		text := strings.TrimSpace(m.Text)
		if utf8.RuneCountInString(text) <= chatPreviewMaxRunes {
			return text
		}
		runes := []rune(text)
		return string(runes[:chatPreviewMaxRunes]) + "..."
	}
	return ""
}

// RecordSoilAnalysis stores an analysis result as the newest soil lab
// record and returns it.
func (s *Store) RecordSoilAnalysis(ctx context.Context, result model.SoilAnalysisResult, loc *model.Location) (model.SoilAnalysisRecord, error) {
	prefix := model.ModeSoil
	if result.Mode == model.ModePlant {
		prefix = model.ModePlant
	}

	var rec model.SoilAnalysisRecord
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		rec = model.SoilAnalysisRecord{
			ID:                 prefix + "-" + strconv.FormatInt(s.ids.Next(), 10),
			Date:               s.now().UTC().Format(time.RFC3339),
			SoilAnalysisResult: result.Clone(),
		}
		if loc != nil {
			l := *loc
			rec.Location = &l
		}

		d.SoilLabHistory = append([]model.SoilAnalysisRecord{rec}, d.SoilLabHistory...)
		if len(d.SoilLabHistory) > MaxSoilLabRecords {
			d.SoilLabHistory = d.SoilLabHistory[:MaxSoilLabRecords]
		}
		return true
	})
	return rec.Clone(), err
}

// AddSubscriber appends a newsletter subscriber unless the exact email is
// already subscribed. It reports whether a record was added.
func (s *Store) AddSubscriber(ctx context.Context, email string) (bool, error) {
	added := false
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		for _, sub := range d.Subscribers {
			if sub.Email == email {
				return false
			}
		}
		d.Subscribers = append(d.Subscribers, model.Subscriber{
			ID:    s.ids.Next(),
			Email: email,
			Date:  s.now().Format(DateLayout),
		})
		added = true
		return true
	})
	return added, err
}

// AddContactMessage appends a contact form message with a fresh id and
// date, and returns the stored message.
func (s *Store) AddContactMessage(ctx context.Context, msg model.ContactMessage) (model.ContactMessage, error) {
	err := s.mutate(ctx, func(d *model.SiteData) bool {
		msg.ID = s.ids.Next()
		msg.Date = s.now().Format(DateLayout)
		d.ContactMessages = append(d.ContactMessages, msg)
		return true
	})
	return msg, err
}

// Notify queues a toast for the user. It is a no-op without a notifier.
func (s *Store) Notify(message, level string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Push(message, level)
}

// Users returns a copy of the user list.
func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(nonNil(s.data.Users))
}

// FindUser looks a user up by username.
func (s *Store) FindUser(username string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data.Users {
		if u.Username == username {
			return u, true
		}
	}
	return model.User{}, false
}

// UserByID looks a user up by id.
func (s *Store) UserByID(id int64) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data.Users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// NextID returns a fresh record id.
func (s *Store) NextID() int64 {
	return s.ids.Next()
}

// ChatSession looks a chat session up by id.
func (s *Store) ChatSession(id string) (model.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.data.ChatHistory {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return model.ChatSession{}, false
}
