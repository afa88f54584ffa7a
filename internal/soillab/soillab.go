// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package soillab runs AI diagnosis of soil and plant photos and plans
// crop rotations.
package soillab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/olegiv/agrisite/internal/ai"
	"github.com/olegiv/agrisite/internal/imaging"
	"github.com/olegiv/agrisite/internal/model"
)

var (
	// ErrUnsupportedImage is returned when the upload is not a usable photo.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrInvalidMode is returned for modes other than soil and plant.
	ErrInvalidMode = errors.New("invalid analysis mode")
	// ErrInvalidResult is returned when the AI reply lacks required fields.
	ErrInvalidResult = errors.New("incomplete analysis result")
)

// Recorder persists successful analyses.
type Recorder interface {
	RecordSoilAnalysis(ctx context.Context, result model.SoilAnalysisResult, loc *model.Location) (model.SoilAnalysisRecord, error)
}

// Locator resolves a client IP to an approximate location.
type Locator interface {
	LookupLocation(ip string) (*model.Location, bool)
}

// Input is a single analysis request.
type Input struct {
	Mode     string
	Image    io.Reader
	Location *model.Location // reported by the browser, may be nil
	ClientIP string          // used for a GeoIP fallback when Location is nil
}

// Analyzer runs soil and plant analyses.
type Analyzer struct {
	provider ai.Provider
	recorder Recorder
	images   *imaging.Processor
	locator  Locator
	logger   *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLocator enables the GeoIP location fallback.
func WithLocator(l Locator) Option {
	return func(a *Analyzer) { a.locator = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithImageProcessor replaces the default image processor.
func WithImageProcessor(p *imaging.Processor) Option {
	return func(a *Analyzer) { a.images = p }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(provider ai.Provider, recorder Recorder, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: provider,
		recorder: recorder,
		images:   imaging.NewProcessor(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze sends the photo to the AI service and records the result. Nothing
// is recorded when any step fails.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (model.SoilAnalysisRecord, error) {
	if in.Mode != model.ModeSoil && in.Mode != model.ModePlant {
		return model.SoilAnalysisRecord{}, fmt.Errorf("%w: %q", ErrInvalidMode, in.Mode)
	}
	if in.Image == nil {
		return model.SoilAnalysisRecord{}, ErrUnsupportedImage
	}

	img, err := a.images.Prepare(in.Image)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return model.SoilAnalysisRecord{}, ErrUnsupportedImage
		}
		return model.SoilAnalysisRecord{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	loc := in.Location
	if loc == nil && a.locator != nil && in.ClientIP != "" {
		if found, ok := a.locator.LookupLocation(in.ClientIP); ok {
			loc = found
		}
	}

	var result model.SoilAnalysisResult
	err = ai.DecodeJSON(ctx, a.provider, ai.Request{
		System: systemPrompt,
		Prompt: analysisPrompt(in.Mode, loc),
		Image:  &ai.Image{Data: img.Data, MimeType: img.MimeType},
	}, &result)
	if err != nil {
		a.logger.Warn("soil analysis failed", "mode", in.Mode, "provider", a.provider.ID(), "error", err)
		return model.SoilAnalysisRecord{}, fmt.Errorf("analyzing %s photo: %w", in.Mode, err)
	}

	if err := normalizeResult(&result, in.Mode); err != nil {
		a.logger.Warn("soil analysis failed", "mode", in.Mode, "provider", a.provider.ID(), "error", err)
		return model.SoilAnalysisRecord{}, err
	}

	return a.recorder.RecordSoilAnalysis(ctx, result, loc)
}

// normalizeResult validates an AI result and fills gaps so that stored
// records always have the same shape.
func normalizeResult(r *model.SoilAnalysisResult, mode string) error {
	r.Mode = mode
	r.Score = max(0, min(100, r.Score))
	r.Type = strings.TrimSpace(r.Type)

	if strings.TrimSpace(r.EN.Summary) == "" {
		return fmt.Errorf("%w: missing english summary", ErrInvalidResult)
	}
	if strings.TrimSpace(r.HI.Summary) == "" {
		r.HI.Summary = r.EN.Summary
	}

	for _, c := range []*model.AnalysisContent{&r.EN, &r.HI} {
		c.Issues = nonNil(c.Issues)
		c.Fixes = nonNil(c.Fixes)
		c.Recommendations = nonNil(c.Recommendations)
		if mode == model.ModePlant {
			c.Composition = nil
			c.Nutrients = nil
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
