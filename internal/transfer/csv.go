// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/agrisite/internal/model"
)

// SoilCSVHeader is the header row of the soil history export.
var SoilCSVHeader = []string{"ID", "Date", "Mode", "Score", "Type", "Summary", "Issues", "Fixes", "Recommendations"}

// SoilCSVFilename returns the download name of a soil history export taken at t.
func SoilCSVFilename(t time.Time) string {
	return "soil-lab-history-" + t.Format("2006-01-02") + ".csv"
}

// WriteSoilCSV writes one row per record using the English report. List
// fields are joined with "; ". Every field is quoted and embedded quotes are
// doubled.
func WriteSoilCSV(w io.Writer, records []model.SoilAnalysisRecord) error {
	bw := bufio.NewWriter(w)

	writeRow(bw, SoilCSVHeader)
	for _, r := range records {
		writeRow(bw, []string{
			r.ID,
			r.Date,
			r.Mode,
			strconv.Itoa(r.Score),
			r.Type,
			r.EN.Summary,
			strings.Join(r.EN.Issues, "; "),
			strings.Join(r.EN.Fixes, "; "),
			strings.Join(r.EN.Recommendations, "; "),
		})
	}
	return bw.Flush()
}

// writeRow writes fields as a fully quoted CSV line. encoding/csv only
// quotes fields that need it.
func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			_ = w.WriteByte(',')
		}
		_ = w.WriteByte('"')
		_, _ = w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('\n')
}
