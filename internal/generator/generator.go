package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/k-shtanenko/ridership-api/internal/catalog"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const (
	weekdayRidership = 350000
	weekendRidership = 180000
	rainPenalty      = -0.15
	temperaturePivot = 22
	temperatureStep  = 0.01

	hourlyScale = 45000
	hourlyNoise = 2500
)

// rainyDays are the day offsets that get rainfall.
var rainyDays = map[int]bool{2: true, 8: true, 14: true, 15: true, 21: true, 27: true}

type modeProfile struct {
	mode    entities.TransportMode
	weekday float64
	weekend float64
	noise   float64
}

var modeProfiles = []modeProfile{
	{entities.TransportTrain, 220000, 75000, 10000},
	{entities.TransportBus, 185000, 65000, 7500},
	{entities.TransportFerry, 45000, 35000, 4000},
	{entities.TransportLightRail, 65000, 28000, 3500},
}

type Options struct {
	StartDate time.Time
	Days      int
}

func DefaultOptions() Options {
	return Options{
		StartDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Days:      30,
	}
}

type Generator struct {
	catalog *catalog.Catalog
	opts    Options
	logger  logger.Logger
	now     func() time.Time
}

func New(cat *catalog.Catalog, opts Options, log logger.Logger) *Generator {
	if opts.StartDate.IsZero() {
		opts.StartDate = DefaultOptions().StartDate
	}
	if opts.Days <= 0 {
		opts.Days = DefaultOptions().Days
	}
	start := opts.StartDate
	opts.StartDate = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	return &Generator{
		catalog: cat,
		opts:    opts,
		logger:  logger.Component(log, "generator"),
		now:     time.Now,
	}
}

// Generate builds a dataset from seed. Seed 0 draws a random seed; the one
// used is recorded on the dataset so the run can be reproduced.
func (g *Generator) Generate(seed int64) (*entities.Dataset, error) {
	if g.catalog == nil {
		return nil, fmt.Errorf("generator has no catalog")
	}
	if seed == 0 {
		seed = randomSeed()
	}

	rng := rand.New(rand.NewSource(seed))
	static := g.catalog.Clone()

	ds := &entities.Dataset{
		Version:             uuid.New().String(),
		Seed:                seed,
		GeneratedAt:         g.now().UTC(),
		StartDate:           g.opts.StartDate,
		DailyUsage:          dailyUsage(rng, g.opts.StartDate, g.opts.Days),
		WeatherImpact:       weatherImpact(rng, g.opts.StartDate, g.opts.Days),
		HourlyUsage:         hourlyUsage(rng),
		Routes:              static.Routes,
		Metrics:             static.Metrics,
		ModeShare:           static.ModeShare,
		ModeComparison:      static.ModeComparison,
		OriginStations:      static.OriginStations,
		DestinationStations: static.DestinationStations,
	}

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("generated dataset is invalid: %w", err)
	}

	g.logger.WithFields(map[string]interface{}{
		"seed":    seed,
		"days":    g.opts.Days,
		"version": ds.Version,
	}).Info("Dataset generated")

	return ds, nil
}

func dailyUsage(rng *rand.Rand, start time.Time, days int) []entities.DailyUsage {
	records := make([]entities.DailyUsage, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		weekend := isWeekend(date)

		counts := make(map[entities.TransportMode]int, len(modeProfiles))
		for _, p := range modeProfiles {
			base := p.weekday
			if weekend {
				base = p.weekend
			}
			counts[p.mode] = nonNegative(math.Round(base + uniform(rng, p.noise)))
		}

		records = append(records, entities.DailyUsage{
			Date:         entities.DateLabel(date),
			CalendarDate: date,
			Train:        counts[entities.TransportTrain],
			Bus:          counts[entities.TransportBus],
			Ferry:        counts[entities.TransportFerry],
			LightRail:    counts[entities.TransportLightRail],
			Day:          entities.WeekdayLabel(date),
		})
	}
	return records
}

func weatherImpact(rng *rand.Rand, start time.Time, days int) []entities.WeatherImpact {
	records := make([]entities.WeatherImpact, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)

		rainMM := 0
		impact := 0.0
		if rainyDays[i] {
			rainMM = rng.Intn(21) + 5
			impact = rainPenalty
		}
		temperature := rng.Intn(10) + 18

		base := float64(weekdayRidership)
		if isWeekend(date) {
			base = weekendRidership
		}
		factor := 1 + impact + float64(temperature-temperaturePivot)*temperatureStep

		records = append(records, entities.WeatherImpact{
			Date:           entities.DateLabel(date),
			CalendarDate:   date,
			Temperature:    temperature,
			RainMM:         rainMM,
			TotalRidership: nonNegative(math.Round(base * factor)),
			Day:            entities.WeekdayLabel(date),
		})
	}
	return records
}

func hourlyUsage(rng *rand.Rand) []entities.HourlyUsage {
	records := make([]entities.HourlyUsage, 24)
	for hour := 0; hour < 24; hour++ {
		records[hour] = entities.HourlyUsage{
			Hour:       hour,
			Label:      entities.HourLabel(hour),
			Passengers: nonNegative(math.Round(hourlyFactor(hour)*hourlyScale + uniform(rng, hourlyNoise))),
		}
	}
	return records
}

// hourlyFactor shapes the day: triangular peaks at 8:00 and 17:00, a flat
// shoulder during the day and early evening, and a low base otherwise.
func hourlyFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return 1 - math.Abs(float64(hour-8))*0.3
	case hour >= 16 && hour <= 18:
		return 0.9 - math.Abs(float64(hour-17))*0.25
	case (hour >= 10 && hour <= 15) || (hour >= 19 && hour <= 21):
		return 0.5
	}
	return 0.2
}

// uniform returns a value in [-spread, spread).
func uniform(rng *rand.Rand, spread float64) float64 {
	return rng.Float64()*2*spread - spread
}

func nonNegative(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v)
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func randomSeed() int64 {
	return time.Now().UnixNano()
}
