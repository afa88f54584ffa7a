// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentStableWithinHour(t *testing.T) {
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	a := Current(base.Add(5 * time.Minute))
	b := Current(base.Add(55 * time.Minute))
	assert.Equal(t, a, b)
	assert.Equal(t, base, a.Time)
}

func TestCurrentChangesAcrossHours(t *testing.T) {
	base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	seen := map[Reading]bool{}
	for h := 0; h < 24; h++ {
		seen[Current(base.Add(time.Duration(h)*time.Hour))] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestCurrentPlausibleRanges(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24*365; h += 7 {
		r := Current(start.Add(time.Duration(h) * time.Hour))
		assert.GreaterOrEqual(t, r.Temperature, 10.0)
		assert.LessOrEqual(t, r.Temperature, 45.0)
		assert.LessOrEqual(t, r.Humidity, 98)
		assert.LessOrEqual(t, r.SoilMoisture, 95)
		assert.Contains(t, []string{Sunny, PartlyCloudy, Cloudy, Rain}, r.Condition)
		assert.NotEmpty(t, r.Advice)
		if r.Condition != Rain {
			assert.Zero(t, r.Rainfall)
		}
	}
}
