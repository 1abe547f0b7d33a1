package analytics

import (
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

// SummarizePeriod sums hourly passengers inside the period and reports the
// share of the whole day they represent.
func SummarizePeriod(hourly []entities.HourlyUsage, period entities.DayPeriod) entities.PeriodSummary {
	from, to := period.Hours()

	summary := entities.PeriodSummary{
		Period: period,
		Label:  period.Label(),
		Hours:  make([]entities.HourlyUsage, 0, to-from+1),
	}

	dayTotal := 0
	for _, h := range hourly {
		dayTotal += h.Passengers
		if h.Hour >= from && h.Hour <= to {
			summary.Passengers += h.Passengers
			summary.Hours = append(summary.Hours, h)
		}
	}
	summary.SharePercent = percentOf(summary.Passengers, dayTotal)

	return summary
}
