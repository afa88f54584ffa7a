// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package soillab

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/agrisite/internal/ai"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/storage"
	"github.com/olegiv/agrisite/internal/store"
)

type fakeProvider struct {
	reply string
	err   error
	calls []ai.Request
}

func (f *fakeProvider) ID() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, req ai.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type fakeLocator struct {
	loc *model.Location
	ips []string
}

func (f *fakeLocator) LookupLocation(ip string) (*model.Location, bool) {
	f.ips = append(f.ips, ip)
	return f.loc, f.loc != nil
}

func testPhoto(t *testing.T) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), storage.NewMemory(storage.DefaultKey))
	require.NoError(t, err)
	return st
}

const soilReply = `Here is the report:
{"mode":"soil","score":140,"type":" Black (Regur) ",
 "en":{"summary":"Heavy clay soil with low organic matter.","issues":["Low nitrogen"],"fixes":["Add vermicompost"],
       "composition":{"sand":20,"silt":30,"clay":45,"organicMatter":5},
       "nutrients":{"nitrogen":"Low","phosphorus":"Medium","potassium":"High","ph":7.8}},
 "hi":{"summary":""}}`

func TestAnalyze_RecordsSoilResult(t *testing.T) {
	st := openStore(t)
	p := &fakeProvider{reply: soilReply}
	a := NewAnalyzer(p, st)

	loc := &model.Location{Lat: 28.61, Lng: 77.21, Label: "New Delhi"}
	rec, err := a.Analyze(context.Background(), Input{Mode: model.ModeSoil, Image: testPhoto(t), Location: loc})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rec.ID, "soil-"))
	assert.Equal(t, 100, rec.Score, "score is clamped")
	assert.Equal(t, "Black (Regur)", rec.Type)
	assert.Equal(t, rec.EN.Summary, rec.HI.Summary, "missing hindi summary falls back to english")
	assert.NotNil(t, rec.EN.Recommendations)
	require.NotNil(t, rec.EN.Nutrients)
	assert.Equal(t, 7.8, rec.EN.Nutrients.PH)
	assert.Equal(t, "New Delhi", rec.Location.Label)

	history := st.Data().SoilLabHistory
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)

	require.Len(t, p.calls, 1)
	call := p.calls[0]
	assert.True(t, call.JSON)
	require.NotNil(t, call.Image)
	assert.Equal(t, "image/jpeg", call.Image.MimeType)
	assert.Contains(t, call.Prompt, "New Delhi")
}

func TestAnalyze_PlantModeDropsSoilFields(t *testing.T) {
	st := openStore(t)
	p := &fakeProvider{reply: `{"score":55,"type":"Tomato - Early blight",
		"en":{"summary":"Fungal spots on lower leaves.","composition":{"sand":1}},
		"hi":{"summary":"निचली पत्तियों पर फफूंद के धब्बे।","nutrients":{"ph":6}}}`}

	rec, err := NewAnalyzer(p, st).Analyze(context.Background(), Input{Mode: model.ModePlant, Image: testPhoto(t)})
	require.NoError(t, err)

	assert.Equal(t, model.ModePlant, rec.Mode)
	assert.True(t, strings.HasPrefix(rec.ID, "plant-"))
	assert.Nil(t, rec.EN.Composition)
	assert.Nil(t, rec.HI.Nutrients)
	assert.Nil(t, rec.Location)
}

func TestAnalyze_GeoIPFallback(t *testing.T) {
	st := openStore(t)
	locator := &fakeLocator{loc: &model.Location{Lat: 26.91, Lng: 75.79, Label: "Jaipur, India"}}
	a := NewAnalyzer(&fakeProvider{reply: soilReply}, st, WithLocator(locator))

	rec, err := a.Analyze(context.Background(), Input{Mode: model.ModeSoil, Image: testPhoto(t), ClientIP: "203.0.113.7"})
	require.NoError(t, err)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Jaipur, India", rec.Location.Label)
	assert.Equal(t, []string{"203.0.113.7"}, locator.ips)

	browser := &model.Location{Lat: 1, Lng: 2}
	rec, err = a.Analyze(context.Background(), Input{Mode: model.ModeSoil, Image: testPhoto(t), Location: browser, ClientIP: "203.0.113.7"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.Location.Lat, "browser location wins")
	assert.Len(t, locator.ips, 1)
}

func TestAnalyze_FailuresRecordNothing(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		reply   string
		err     error
		wantErr error
	}{
		{"invalid mode", "leaf", soilReply, nil, ErrInvalidMode},
		{"provider error", model.ModeSoil, "", ai.ErrNotConfigured, ai.ErrNotConfigured},
		{"no json", model.ModeSoil, "Sorry, the image is too blurry.", nil, ai.ErrNoJSON},
		{"missing summary", model.ModeSoil, `{"score":40,"en":{"summary":" "}}`, nil, ErrInvalidResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openStore(t)
			a := NewAnalyzer(&fakeProvider{reply: tt.reply, err: tt.err}, st)

			_, err := a.Analyze(context.Background(), Input{Mode: tt.mode, Image: testPhoto(t)})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, st.Data().SoilLabHistory)
		})
	}
}

func TestAnalyze_UnsupportedImage(t *testing.T) {
	st := openStore(t)
	p := &fakeProvider{reply: soilReply}

	_, err := NewAnalyzer(p, st).Analyze(context.Background(), Input{
		Mode:  model.ModeSoil,
		Image: strings.NewReader("%PDF-1.7 not a photo"),
	})
	assert.True(t, errors.Is(err, ErrUnsupportedImage))
	assert.Empty(t, p.calls, "no AI call for unusable uploads")
	assert.Empty(t, st.Data().SoilLabHistory)
}

func TestRotationPlan(t *testing.T) {
	p := &fakeProvider{reply: `{"en":{"summary":"Legumes restore nitrogen.",
		"steps":[{"season":"Kharif","crop":"Moong","reason":"Fixes nitrogen"},{"season":"Rabi","crop":"Wheat","reason":"Uses fixed nitrogen"}]}}`}

	plan, err := NewAnalyzer(p, openStore(t)).RotationPlan(context.Background(), PlanInput{Crop: "Rice", Region: "Punjab"})
	require.NoError(t, err)

	assert.Len(t, plan.EN.Steps, 2)
	assert.Equal(t, plan.EN.Steps, plan.HI.Steps, "missing hindi plan falls back to english")
	assert.NotNil(t, plan.EN.Tips)

	require.Len(t, p.calls, 1)
	assert.Contains(t, p.calls[0].Prompt, "Rice")
	assert.Contains(t, p.calls[0].Prompt, "Soil type: not specified")
	assert.Nil(t, p.calls[0].Image)
}

func TestRotationPlan_Errors(t *testing.T) {
	a := NewAnalyzer(&fakeProvider{reply: `{"en":{"summary":"nothing to do"}}`}, openStore(t))
	_, err := a.RotationPlan(context.Background(), PlanInput{})
	assert.ErrorIs(t, err, ErrInvalidResult)

	a = NewAnalyzer(&fakeProvider{err: ai.ErrEmptyResponse}, openStore(t))
	_, err = a.RotationPlan(context.Background(), PlanInput{})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}
