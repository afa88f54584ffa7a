// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package assistant implements the farm chat assistant and AI drafting of
// blog posts.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/agrisite/internal/ai"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/store"
)

// MaxMessageRunes limits the length of one chat message.
const MaxMessageRunes = 2000

// historyTurns is how many earlier messages are sent to the model.
const historyTurns = 20

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("message is empty")

const chatSystemPrompt = `You are "Krishi Mitra", the friendly assistant of an organic farming
consultancy. Answer questions about organic farming, soil health, composting,
natural pest control, irrigation, crop planning and the consultancy's services.
Keep answers short and practical. Reply in the language the farmer writes in
(English or Hindi). If a question is unrelated to farming, politely steer the
conversation back.`

// Assistant talks to the AI provider and keeps conversations in the store.
type Assistant struct {
	provider ai.Provider
	store    *store.Store
	logger   *slog.Logger
}

// New creates an Assistant.
func New(provider ai.Provider, st *store.Store, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{provider: provider, store: st, logger: logger}
}

// ChatReply is the outcome of one chat turn.
type ChatReply struct {
	SessionID string              `json:"sessionId"`
	Reply     string              `json:"reply"`
	Messages  []model.ChatMessage `json:"messages"`
}

// Chat sends text to the model in the context of session sessionID (a new
// session is started when it is empty or unknown) and stores the updated
// conversation. A failed AI call leaves the stored history untouched.
func (a *Assistant) Chat(ctx context.Context, sessionID, text string) (ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatReply{}, ErrEmptyMessage
	}
	if runes := []rune(text); len(runes) > MaxMessageRunes {
		text = string(runes[:MaxMessageRunes])
	}

	var msgs []model.ChatMessage
	if sessionID != "" {
		if session, ok := a.store.ChatSession(sessionID); ok {
			msgs = session.Messages
		}
	} else {
		sessionID = uuid.NewString()
	}

	req := ai.Request{
		System:  chatSystemPrompt,
		History: toHistory(msgs),
		Prompt:  text,
	}
	reply, err := a.provider.Generate(ctx, req)
	if err != nil {
		a.logger.Warn("chat ai request failed", "session", sessionID, "provider", a.provider.ID(), "error", err)
		return ChatReply{}, fmt.Errorf("chat: %w", err)
	}

	now := a.store.Now().UTC().Format(time.RFC3339)
	msgs = append(msgs,
		model.ChatMessage{Role: model.ChatRoleUser, Text: text, Timestamp: now},
		model.ChatMessage{Role: model.ChatRoleModel, Text: reply, Timestamp: now},
	)
	if err := a.store.UpsertChatSession(ctx, sessionID, msgs); err != nil {
		return ChatReply{}, err
	}

	if len(msgs) > store.MaxChatMessages {
		msgs = msgs[len(msgs)-store.MaxChatMessages:]
	}
	return ChatReply{SessionID: sessionID, Reply: reply, Messages: msgs}, nil
}

// toHistory converts the most recent stored messages to provider turns.
func toHistory(msgs []model.ChatMessage) []ai.Message {
	if len(msgs) > historyTurns {
		msgs = msgs[len(msgs)-historyTurns:]
	}
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := ai.RoleUser
		if m.Role == model.ChatRoleModel {
			role = ai.RoleAssistant
		}
		out = append(out, ai.Message{Role: role, Text: m.Text})
	}
	return out
}
