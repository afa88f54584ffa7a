// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/agrisite/internal/ai"
	"github.com/olegiv/agrisite/internal/assistant"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/store"
)

// msgAIFailed is shown when the AI provider fails; provider errors are
// logged, never returned to the client.
const msgAIFailed = "The assistant could not answer right now. Please try again."

// writeAIError maps an AI collaborator error to a response and queues an
// error toast.
func writeAIError(w http.ResponseWriter, st *store.Store, logMsg string, err error) {
	if errors.Is(err, ai.ErrNotConfigured) {
		st.Notify("AI features are not configured", notify.LevelError)
		WriteError(w, http.StatusServiceUnavailable, "ai_unavailable", "AI features are not configured", nil)
		return
	}
	slog.Error(logMsg, "error", err)
	st.Notify(msgAIFailed, notify.LevelError)
	WriteError(w, http.StatusBadGateway, "ai_failed", msgAIFailed, nil)
}

// ChatHandler serves the farm assistant chat.
type ChatHandler struct {
	assistant *assistant.Assistant
	store     *store.Store
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(a *assistant.Assistant, st *store.Store) *ChatHandler {
	return &ChatHandler{assistant: a, store: st}
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	reply, err := h.assistant.Chat(r.Context(), req.SessionID, req.Message)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		WriteValidationError(w, map[string]string{"message": "Message is required"})
		return
	case err != nil:
		writeAIError(w, h.store, "chat failed", err)
		return
	}
	WriteSuccess(w, reply, nil)
}
