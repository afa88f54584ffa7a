// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package weather produces the simulated farm weather shown on the admin
// dashboard. Readings are pseudo-random but stable within an hour.
package weather

import (
	"math"
	"math/rand/v2"
	"time"
)

// Reading is a simulated weather observation.
type Reading struct {
	Time         time.Time `json:"time"`
	Condition    string    `json:"condition"`
	Temperature  float64   `json:"temperature"`  // °C
	Humidity     int       `json:"humidity"`     // %
	WindSpeed    float64   `json:"windSpeed"`    // km/h
	Rainfall     float64   `json:"rainfall"`     // mm in the last hour
	SoilMoisture int       `json:"soilMoisture"` // %
	Advice       string    `json:"advice"`
}

// Conditions.
const (
	Sunny        = "Sunny"
	PartlyCloudy = "Partly Cloudy"
	Cloudy       = "Cloudy"
	Rain         = "Rain"
)

// Current returns the reading for the hour containing now. The same hour
// always yields the same reading.
func Current(now time.Time) Reading {
	hour := now.UTC().Truncate(time.Hour)
	rng := rand.New(rand.NewPCG(uint64(hour.Unix()), 0x5eed))

	// Season: hottest in May, coolest in January; monsoon June to September.
	day := float64(hour.YearDay())
	seasonal := 27 + 8*math.Sin(2*math.Pi*(day-45)/365)
	monsoon := hour.Month() >= time.June && hour.Month() <= time.September

	// Day cycle peaks mid-afternoon local time (UTC+5:30).
	local := hour.Add(5*time.Hour + 30*time.Minute)
	diurnal := 5 * math.Sin(2*math.Pi*(float64(local.Hour())-9)/24)

	r := Reading{
		Time:        hour,
		Temperature: round1(seasonal + diurnal + rng.Float64()*2 - 1),
		WindSpeed:   round1(4 + rng.Float64()*12),
	}

	humidity := 35 + rng.IntN(25)
	roll := rng.Float64()
	switch {
	case monsoon && roll < 0.45:
		r.Condition = Rain
		r.Rainfall = round1(1 + rng.Float64()*15)
		humidity += 30
	case roll < 0.15:
		r.Condition = Rain
		r.Rainfall = round1(rng.Float64() * 4)
		humidity += 20
	case roll < 0.35:
		r.Condition = Cloudy
		humidity += 10
	case roll < 0.6:
		r.Condition = PartlyCloudy
	default:
		r.Condition = Sunny
	}
	r.Humidity = min(humidity, 98)
	r.SoilMoisture = min(95, 20+r.Humidity/3+int(r.Rainfall*2))
	r.Advice = advice(r)
	return r
}

func advice(r Reading) string {
	switch {
	case r.Condition == Rain:
		return "Hold off irrigation and spraying; check field drainage."
	case r.Temperature >= 36:
		return "Irrigate early morning or evening and mulch exposed beds."
	case r.SoilMoisture < 35:
		return "Soil is drying out; schedule irrigation today."
	case r.WindSpeed > 12:
		return "Windy conditions; avoid foliar sprays."
	default:
		return "Good conditions for field work."
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
