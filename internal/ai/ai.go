// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai wraps the generative AI services used by the soil lab, the
// farm assistant and blog drafting behind a single Provider interface.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider IDs.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
)

// Message roles used in Request.History.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const httpTimeout = 120 * time.Second

// jsonInstruction is appended to the system prompt when JSON output is requested.
const jsonInstruction = "Respond ONLY with a single valid JSON object. Do not wrap it in markdown code fences or add any other text."

var (
	// ErrNotConfigured is returned by the disabled provider.
	ErrNotConfigured = errors.New("ai provider not configured")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("ai returned an empty response")
	// ErrNoJSON is returned when no JSON object could be found in the response.
	ErrNoJSON = errors.New("ai response contains no JSON object")
)

// Message is one previous turn of a conversation.
type Message struct {
	Role string
	Text string
}

// Image is an inlined picture sent along with the prompt.
type Image struct {
	Data     []byte
	MimeType string
}

// Request describes a single generation call.
type Request struct {
	System    string
	History   []Message
	Prompt    string
	Image     *Image
	JSON      bool // ask the model for a JSON object
	MaxTokens int
}

// Provider generates text from a prompt.
type Provider interface {
	ID() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// New returns the provider described by cfg. A missing API key yields the
// disabled provider, except for Ollama which runs locally.
func New(cfg Config) (Provider, error) {
	if cfg.APIKey == "" && cfg.Provider != ProviderOllama {
		return Disabled{}, nil
	}

	switch cfg.Provider {
	case ProviderOpenAI, ProviderGroq, ProviderOllama:
		return NewOpenAICompatible(cfg), nil
	case ProviderClaude:
		return NewClaude(cfg), nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", cfg.Provider)
	}
}

// Disabled is the provider used when no credentials are configured.
type Disabled struct{}

// ID implements Provider.
func (Disabled) ID() string { return "disabled" }

// Generate implements Provider.
func (Disabled) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// systemPrompt returns the system prompt with the JSON instruction applied.
func (r Request) systemPrompt() string {
	if !r.JSON {
		return r.System
	}
	if r.System == "" {
		return jsonInstruction
	}
	return r.System + "\n\n" + jsonInstruction
}
