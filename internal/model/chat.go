// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Chat message roles.
const (
	ChatRoleUser  = "user"
	ChatRoleModel = "model"
)

// ChatSession is one stored assistant conversation.
type ChatSession struct {
	ID       string        `json:"id"`
	Date     string        `json:"date"`
	Messages []ChatMessage `json:"messages"`
	Preview  string        `json:"preview"`
}

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Clone returns a deep copy of the session.
func (s ChatSession) Clone() ChatSession {
	s.Messages = cloneSlice(s.Messages)
	return s
}
