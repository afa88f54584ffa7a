// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	claudeBaseURL      = "https://api.anthropic.com/v1"
	claudeDefaultModel = "claude-haiku-4-5-20251001"
	claudeMaxTokens    = 4096
)

// Claude implements Provider for the Anthropic Messages API.
type Claude struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewClaude creates a Claude provider.
func NewClaude(cfg Config) *Claude {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = claudeBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = claudeDefaultModel
	}
	return &Claude{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// ID implements Provider.
func (c *Claude) ID() string { return ProviderClaude }

type claudeContent struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

// Generate implements Provider.
func (c *Claude) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]claudeMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, claudeMessage{
			Role:    role,
			Content: []claudeContent{{Type: "text", Text: m.Text}},
		})
	}

	var content []claudeContent
	if req.Image != nil {
		content = append(content, claudeContent{
			Type: "image",
			Source: &claudeSource{
				Type:      "base64",
				MediaType: req.Image.MimeType,
				Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		})
	}
	content = append(content, claudeContent{Type: "text", Text: req.Prompt})
	messages = append(messages, claudeMessage{Role: RoleUser, Content: content})

	maxTokens := claudeMaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	body := map[string]any{
		"model":      c.model,
		"messages":   messages,
		"max_tokens": maxTokens,
	}
	if system := req.systemPrompt(); system != "" {
		body["system"] = system
	}

	respBody, err := c.do(ctx, body)
	if err != nil {
		return "", fmt.Errorf("claude chat: %w", err)
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("claude decode: %w", err)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// do performs a JSON HTTP request with Anthropic-style auth.
func (c *Claude) do(ctx context.Context, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
