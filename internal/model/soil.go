// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Soil lab analysis modes.
const (
	ModeSoil  = "soil"
	ModePlant = "plant"
)

// SoilAnalysisResult is the structured report returned by the AI service.
type SoilAnalysisResult struct {
	Mode  string          `json:"mode"`
	Score int             `json:"score"`
	Type  string          `json:"type"`
	EN    AnalysisContent `json:"en"`
	HI    AnalysisContent `json:"hi"`
}

// AnalysisContent is one language block of a report. Composition and
// Nutrients are only filled in soil mode.
type AnalysisContent struct {
	Summary         string       `json:"summary"`
	Issues          []string     `json:"issues"`
	Fixes           []string     `json:"fixes"`
	Recommendations []string     `json:"recommendations"`
	Composition     *Composition `json:"composition,omitempty"`
	Nutrients       *Nutrients   `json:"nutrients,omitempty"`
}

// Composition is the estimated soil texture in percent.
type Composition struct {
	Sand          float64 `json:"sand"`
	Silt          float64 `json:"silt"`
	Clay          float64 `json:"clay"`
	OrganicMatter float64 `json:"organicMatter"`
}

// Nutrients is the estimated nutrient status of a soil sample.
type Nutrients struct {
	Nitrogen   string  `json:"nitrogen"`
	Phosphorus string  `json:"phosphorus"`
	Potassium  string  `json:"potassium"`
	PH         float64 `json:"ph"`
}

// Location is where a sample was taken.
type Location struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

// SoilAnalysisRecord is a stored soil lab result.
type SoilAnalysisRecord struct {
	ID       string    `json:"id"`
	Date     string    `json:"date"`
	Location *Location `json:"location,omitempty"`
	SoilAnalysisResult
}

// Clone returns a deep copy of the content block.
func (c AnalysisContent) Clone() AnalysisContent {
	c.Issues = cloneSlice(c.Issues)
	c.Fixes = cloneSlice(c.Fixes)
	c.Recommendations = cloneSlice(c.Recommendations)
	if c.Composition != nil {
		comp := *c.Composition
		c.Composition = &comp
	}
	if c.Nutrients != nil {
		n := *c.Nutrients
		c.Nutrients = &n
	}
	return c
}

// Clone returns a deep copy of the result.
func (r SoilAnalysisResult) Clone() SoilAnalysisResult {
	r.EN = r.EN.Clone()
	r.HI = r.HI.Clone()
	return r
}

// Clone returns a deep copy of the record.
func (r SoilAnalysisRecord) Clone() SoilAnalysisRecord {
	r.SoilAnalysisResult = r.SoilAnalysisResult.Clone()
	if r.Location != nil {
		loc := *r.Location
		r.Location = &loc
	}
	return r
}
