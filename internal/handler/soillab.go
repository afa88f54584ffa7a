// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/soillab"
	"github.com/olegiv/agrisite/internal/store"
	"github.com/olegiv/agrisite/internal/transfer"
)

// maxUploadSize caps soil lab photo uploads.
const maxUploadSize = 10 << 20

// SoilLabHandler serves photo analysis, rotation plans and the analysis
// history.
type SoilLabHandler struct {
	analyzer *soillab.Analyzer
	store    *store.Store
}

// NewSoilLabHandler creates a new soil lab handler.
func NewSoilLabHandler(a *soillab.Analyzer, st *store.Store) *SoilLabHandler {
	return &SoilLabHandler{analyzer: a, store: st}
}

// Analyze handles POST /api/soil-lab/analyze. The multipart form carries
// the photo in "image", the mode in "mode" and an optional browser
// location in "lat", "lng" and "label".
func (h *SoilLabHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteBadRequest(w, "Photo is too large or the form is invalid", nil)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		WriteValidationError(w, map[string]string{"image": "A photo is required"})
		return
	}
	defer func() { _ = file.Close() }()

	mode := strings.ToLower(strings.TrimSpace(r.FormValue("mode")))
	if mode == "" {
		mode = model.ModeSoil
	}

	loc, ok := parseLocation(r)
	if !ok {
		WriteValidationError(w, map[string]string{"location": "Latitude and longitude must be valid coordinates"})
		return
	}

	rec, err := h.analyzer.Analyze(r.Context(), soillab.Input{
		Mode:     mode,
		Image:    file,
		Location: loc,
		ClientIP: middleware.ClientIP(r),
	})
	switch {
	case errors.Is(err, soillab.ErrInvalidMode):
		WriteValidationError(w, map[string]string{"mode": "Mode must be soil or plant"})
		return
	case errors.Is(err, soillab.ErrUnsupportedImage):
		WriteValidationError(w, map[string]string{"image": "Please upload a JPEG, PNG, GIF or WebP photo"})
		return
	case err != nil:
		writeAIError(w, h.store, "soil analysis failed", err)
		return
	}
	WriteCreated(w, rec)
}

// parseLocation reads an optional location from the form. It returns
// false when coordinates are present but invalid.
func parseLocation(r *http.Request) (*model.Location, bool) {
	latStr := strings.TrimSpace(r.FormValue("lat"))
	lngStr := strings.TrimSpace(r.FormValue("lng"))
	if latStr == "" && lngStr == "" {
		return nil, true
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, false
	}
	return &model.Location{
		Lat:   lat,
		Lng:   lng,
		Label: strings.TrimSpace(r.FormValue("label")),
	}, true
}

// RotationPlan handles POST /api/soil-lab/rotation-plan.
func (h *SoilLabHandler) RotationPlan(w http.ResponseWriter, r *http.Request) {
	var in soillab.PlanInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}
	in.Crop = strings.TrimSpace(in.Crop)
	if in.Crop == "" {
		WriteValidationError(w, map[string]string{"crop": "Current crop is required"})
		return
	}

	plan, err := h.analyzer.RotationPlan(r.Context(), in)
	if err != nil {
		writeAIError(w, h.store, "rotation plan failed", err)
		return
	}
	WriteSuccess(w, plan, nil)
}

// History handles GET /api/soil-lab/history and its admin counterpart.
func (h *SoilLabHandler) History(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.store.Data().SoilLabHistory)
}

// ExportCSV handles GET /admin/api/soil-lab/export.csv.
func (h *SoilLabHandler) ExportCSV(w http.ResponseWriter, _ *http.Request) {
	records := h.store.Data().SoilLabHistory

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+transfer.SoilCSVFilename(h.store.Now())+`"`)

	if err := transfer.WriteSoilCSV(w, records); err != nil {
		slog.Error("failed to write soil lab csv", "error", err)
	}
}
