package analytics

import (
	"fmt"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

type tempRange struct {
	min, max int
}

// temperatureRanges are inclusive and disjoint.
var temperatureRanges = []tempRange{{18, 20}, {21, 23}, {24, 26}, {27, 29}}

// FilterWeather keeps rainy days, dry days or everything.
func FilterWeather(records []entities.WeatherImpact, condition entities.WeatherCondition) []entities.WeatherImpact {
	out := make([]entities.WeatherImpact, 0, len(records))
	for _, rec := range records {
		switch condition {
		case entities.ConditionRain:
			if !rec.IsRainy() {
				continue
			}
		case entities.ConditionDry:
			if rec.IsRainy() {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// TemperatureBuckets averages ridership per temperature range. Empty ranges
// report 0.
func TemperatureBuckets(records []entities.WeatherImpact) []entities.TemperatureBucket {
	buckets := make([]entities.TemperatureBucket, len(temperatureRanges))
	for i, r := range temperatureRanges {
		sum, count := 0, 0
		for _, rec := range records {
			if rec.Temperature >= r.min && rec.Temperature <= r.max {
				sum += rec.TotalRidership
				count++
			}
		}
		buckets[i] = entities.TemperatureBucket{
			Range:        fmt.Sprintf("%d-%d°C", r.min, r.max),
			Min:          r.min,
			Max:          r.max,
			AvgRidership: mean(sum, count),
			Days:         count,
		}
	}
	return buckets
}

// WeekdayComparison averages rainy and dry ridership separately for each
// weekday, Sun through Sat.
func WeekdayComparison(records []entities.WeatherImpact) []entities.WeekdayComparison {
	days := entities.Weekdays()
	out := make([]entities.WeekdayComparison, len(days))
	for i, day := range days {
		var rainySum, rainyCount, drySum, dryCount int
		for _, rec := range records {
			if rec.Day != day {
				continue
			}
			if rec.IsRainy() {
				rainySum += rec.TotalRidership
				rainyCount++
			} else {
				drySum += rec.TotalRidership
				dryCount++
			}
		}

		cmp := entities.WeekdayComparison{
			Day:            day,
			RainyRidership: mean(rainySum, rainyCount),
			DryRidership:   mean(drySum, dryCount),
			RainyDays:      rainyCount,
			DryDays:        dryCount,
		}
		if rainyCount > 0 && dryCount > 0 {
			cmp.ImpactPercent = percentChange(cmp.RainyRidership, cmp.DryRidership)
		}
		out[i] = cmp
	}
	return out
}

// SummarizeWeather produces the headline weather figures: rainy and dry
// averages, the rain impact, the best temperature range and the weekday
// whose ridership drops least on rainy days.
func SummarizeWeather(records []entities.WeatherImpact) entities.WeatherSummary {
	var rainySum, rainyCount, drySum, dryCount int
	for _, rec := range records {
		if rec.IsRainy() {
			rainySum += rec.TotalRidership
			rainyCount++
		} else {
			drySum += rec.TotalRidership
			dryCount++
		}
	}

	summary := entities.WeatherSummary{
		RainyAvgRidership: mean(rainySum, rainyCount),
		DryAvgRidership:   mean(drySum, dryCount),
	}
	if rainyCount > 0 && dryCount > 0 {
		summary.RainImpactPercent = percentChange(summary.RainyAvgRidership, summary.DryAvgRidership)
	}

	best := -1
	for _, b := range TemperatureBuckets(records) {
		if b.Days > 0 && b.AvgRidership > best {
			best = b.AvgRidership
			summary.OptimalRange = b.Range
		}
	}

	found := false
	var bestImpact float64
	for _, cmp := range WeekdayComparison(records) {
		if cmp.RainyDays == 0 || cmp.DryDays == 0 {
			continue
		}
		if !found || cmp.ImpactPercent > bestImpact {
			found = true
			bestImpact = cmp.ImpactPercent
			summary.ResilientDay = cmp.Day
		}
	}

	return summary
}
