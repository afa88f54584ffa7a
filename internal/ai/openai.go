// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Default endpoints and models for OpenAI-compatible providers.
var openAICompatibleDefaults = map[string]struct {
	baseURL string
	model   string
}{
	ProviderOpenAI: {"https://api.openai.com/v1/", "gpt-4o-mini"},
	ProviderGroq:   {"https://api.groq.com/openai/v1/", "meta-llama/llama-4-scout-17b-16e-instruct"},
	ProviderOllama: {"http://localhost:11434/v1/", "llama3.2-vision"},
}

// OpenAICompatible talks to OpenAI, Groq and Ollama through the chat
// completions API.
type OpenAICompatible struct {
	id     string
	model  string
	client openai.Client
}

// NewOpenAICompatible creates a provider for cfg.Provider, which must be one
// of ProviderOpenAI, ProviderGroq or ProviderOllama.
func NewOpenAICompatible(cfg Config) *OpenAICompatible {
	defaults := openAICompatibleDefaults[cfg.Provider]

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaults.baseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	model := cfg.Model
	if model == "" {
		model = defaults.model
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama ignores the key but the client always sends one.
		apiKey = cfg.Provider
	}

	return &OpenAICompatible{
		id:    cfg.Provider,
		model: model,
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
			option.WithMaxRetries(1),
		),
	}
}

// ID implements Provider.
func (p *OpenAICompatible) ID() string { return p.id }

// Generate implements Provider.
func (p *OpenAICompatible) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if system := req.systemPrompt(); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Text))
		} else {
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}

	if req.Image != nil {
		dataURL := "data:" + req.Image.MimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
		messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		}))
	} else {
		messages = append(messages, openai.UserMessage(req.Prompt))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", p.id, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
