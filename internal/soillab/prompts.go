// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package soillab

import (
	"fmt"
	"strings"

	"github.com/olegiv/agrisite/internal/model"
)

const systemPrompt = `You are a senior agronomist at an organic farming consultancy in India.
You explain findings to smallholder farmers in plain language and always answer
in both English ("en") and Hindi ("hi", Devanagari script). Recommend organic
and low-cost remedies first: compost, vermicompost, green manure, jeevamrut,
neem based sprays, crop rotation and mulching.`

const soilPrompt = `Analyze the attached photo of a soil sample.

Return a JSON object with exactly this shape:
{
  "mode": "soil",
  "score": <integer 0-100 overall soil health>,
  "type": "<soil type, e.g. Alluvial, Black (Regur), Red, Laterite, Sandy loam>",
  "en": {
    "summary": "<2-3 sentence assessment>",
    "issues": ["<problem>", ...],
    "fixes": ["<organic remedy>", ...],
    "recommendations": ["<suitable crop or practice>", ...],
    "composition": {"sand": <percent>, "silt": <percent>, "clay": <percent>, "organicMatter": <percent>},
    "nutrients": {"nitrogen": "Low|Medium|High", "phosphorus": "Low|Medium|High", "potassium": "Low|Medium|High", "ph": <number>}
  },
  "hi": { <the same fields translated to Hindi; numbers unchanged> }
}`

const plantPrompt = `Diagnose the plant in the attached photo. Identify the crop and any
disease, pest or nutrient deficiency visible on leaves, stem or fruit.

Return a JSON object with exactly this shape:
{
  "mode": "plant",
  "score": <integer 0-100 overall plant health>,
  "type": "<crop name and diagnosed condition, e.g. Tomato - Early blight>",
  "en": {
    "summary": "<2-3 sentence diagnosis>",
    "issues": ["<symptom or cause>", ...],
    "fixes": ["<organic treatment>", ...],
    "recommendations": ["<prevention practice>", ...]
  },
  "hi": { <the same fields translated to Hindi> }
}`

const rotationPrompt = `Plan a three season organic crop rotation for a farmer.

Current or last crop: %s
Soil type: %s
Region: %s
Starting season: %s

Return a JSON object with exactly this shape:
{
  "en": {
    "summary": "<why this rotation suits the field>",
    "steps": [{"season": "<Kharif|Rabi|Zaid and months>", "crop": "<crop>", "reason": "<benefit to soil or income>"}, ...],
    "tips": ["<practical tip>", ...]
  },
  "hi": { <the same fields translated to Hindi> }
}`

// analysisPrompt returns the user prompt for a soil or plant photo.
func analysisPrompt(mode string, loc *model.Location) string {
	prompt := soilPrompt
	if mode == model.ModePlant {
		prompt = plantPrompt
	}
	if loc != nil {
		where := loc.Label
		if where == "" {
			where = fmt.Sprintf("%.4f, %.4f", loc.Lat, loc.Lng)
		}
		prompt += "\n\nThe sample was taken near " + where + ". Take the local climate into account."
	}
	return prompt
}

// planPrompt returns the user prompt for a crop rotation plan.
func planPrompt(in PlanInput) string {
	return fmt.Sprintf(rotationPrompt,
		orUnknown(in.Crop), orUnknown(in.SoilType), orUnknown(in.Region), orUnknown(in.Season))
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "not specified"
	}
	return s
}
