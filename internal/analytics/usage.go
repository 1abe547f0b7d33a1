// Package analytics derives the per-view summaries from a generated dataset.
// Every function is pure, never mutates its input and accepts empty input.
package analytics

import (
	"math"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

// DailyUsageRows copies daily records for charting. When every mode is
// selected each row also carries the total across modes.
func DailyUsageRows(records []entities.DailyUsage, mode entities.ModeFilter) []entities.DailyUsageRow {
	rows := make([]entities.DailyUsageRow, len(records))
	for i, rec := range records {
		rows[i] = entities.DailyUsageRow{DailyUsage: rec}
		if mode.IsAll() {
			total := rec.Total()
			rows[i].Total = &total
		}
	}
	return rows
}

// TrailingWindow keeps the last r.Days() records, or all of them when fewer
// exist.
func TrailingWindow(records []entities.DailyUsage, r entities.TimeRange) []entities.DailyUsage {
	n := r.Days()
	if n > len(records) {
		n = len(records)
	}
	out := make([]entities.DailyUsage, n)
	copy(out, records[len(records)-n:])
	return out
}

// ModeTotals sums each mode across the records.
func ModeTotals(records []entities.DailyUsage) map[entities.TransportMode]int {
	totals := make(map[entities.TransportMode]int, len(entities.TransportModes))
	for _, mode := range entities.TransportModes {
		totals[mode] = 0
	}
	for _, rec := range records {
		for _, mode := range entities.TransportModes {
			totals[mode] += rec.Count(mode)
		}
	}
	return totals
}

// mean is sum/count rounded half away from zero. The denominator is floored
// at 1 so empty groups average to 0.
func mean(sum, count int) int {
	if count < 1 {
		count = 1
	}
	return int(math.Round(float64(sum) / float64(count)))
}

// percentChange is (value-base)/base as a percentage rounded to one decimal,
// or 0 when base is 0.
func percentChange(value, base int) float64 {
	if base == 0 {
		return 0
	}
	return math.Round(float64(value-base)/float64(base)*1000) / 10
}

func percentOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
