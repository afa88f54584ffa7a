// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package soillab

import (
	"context"
	"fmt"

	"github.com/olegiv/agrisite/internal/ai"
)

// PlanInput describes the field a rotation is planned for.
type PlanInput struct {
	Crop     string `json:"crop"`
	SoilType string `json:"soilType"`
	Region   string `json:"region"`
	Season   string `json:"season"`
}

// RotationStep is one season of a rotation.
type RotationStep struct {
	Season string `json:"season"`
	Crop   string `json:"crop"`
	Reason string `json:"reason"`
}

// RotationContent is one language block of a plan.
type RotationContent struct {
	Summary string         `json:"summary"`
	Steps   []RotationStep `json:"steps"`
	Tips    []string       `json:"tips"`
}

// RotationPlan is a bilingual crop rotation plan. Plans are not stored.
type RotationPlan struct {
	EN RotationContent `json:"en"`
	HI RotationContent `json:"hi"`
}

// RotationPlan asks the AI service for a crop rotation plan.
func (a *Analyzer) RotationPlan(ctx context.Context, in PlanInput) (RotationPlan, error) {
	var plan RotationPlan
	err := ai.DecodeJSON(ctx, a.provider, ai.Request{
		System: systemPrompt,
		Prompt: planPrompt(in),
	}, &plan)
	if err != nil {
		a.logger.Warn("rotation plan ai request failed", "provider", a.provider.ID(), "error", err)
		return RotationPlan{}, fmt.Errorf("planning rotation: %w", err)
	}

	if len(plan.EN.Steps) == 0 {
		return RotationPlan{}, fmt.Errorf("%w: rotation plan has no steps", ErrInvalidResult)
	}
	if len(plan.HI.Steps) == 0 {
		plan.HI = plan.EN
	}
	plan.EN.Tips = nonNil(plan.EN.Tips)
	plan.HI.Tips = nonNil(plan.HI.Tips)
	return plan, nil
}
