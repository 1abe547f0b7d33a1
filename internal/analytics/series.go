package analytics

import (
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

const (
	colorBlue      = "#1a73e8"
	colorGreen     = "#34a853"
	colorLightBlue = "#4285f4"
	colorYellow    = "#fbbc04"
	colorRed       = "#ea4335"
)

var modeColors = map[entities.TransportMode]string{
	entities.TransportTrain:     colorBlue,
	entities.TransportBus:       colorGreen,
	entities.TransportFerry:     colorLightBlue,
	entities.TransportLightRail: colorYellow,
}

// ModeSeries plots every transport mode as its own line.
func ModeSeries() []entities.SeriesSpec {
	out := make([]entities.SeriesSpec, 0, len(entities.TransportModes))
	for _, mode := range entities.TransportModes {
		out = append(out, modeSpec(mode))
	}
	return out
}

// DailySeries plots the combined total for all modes, or the single
// selected mode.
func DailySeries(mode entities.ModeFilter) []entities.SeriesSpec {
	if m, ok := mode.Mode(); ok {
		return []entities.SeriesSpec{modeSpec(m)}
	}
	return []entities.SeriesSpec{{DataKey: "total", Name: "All Transport", Color: colorBlue}}
}

func HourlySeries() []entities.SeriesSpec {
	return []entities.SeriesSpec{{DataKey: "passengers", Name: "Passengers", Color: colorRed}}
}

func DashboardRouteSeries() []entities.SeriesSpec {
	return []entities.SeriesSpec{{DataKey: "passengers", Name: "Daily Passengers", Color: colorGreen}}
}

func RouteSeries() []entities.SeriesSpec {
	return []entities.SeriesSpec{{DataKey: "passengers", Name: "Daily Passengers", Color: colorBlue}}
}

func ModeShareSeries() []entities.SeriesSpec {
	return []entities.SeriesSpec{{DataKey: "value", Name: "Percentage", Color: colorBlue}}
}

func WeatherSeries() []entities.SeriesSpec {
	return []entities.SeriesSpec{
		{DataKey: "totalRidership", Name: "Total Ridership", Color: colorBlue},
		{DataKey: "rainMM", Name: "Rainfall (mm)", Color: colorGreen},
	}
}

func TemperatureSeries() []entities.SeriesSpec {
	return []entities.SeriesSpec{{DataKey: "avgRidership", Name: "Average Daily Ridership", Color: colorRed}}
}

func WeekdaySeries() []entities.SeriesSpec {
	return []entities.SeriesSpec{
		{DataKey: "rainyRidership", Name: "Rainy Day Ridership", Color: colorLightBlue},
		{DataKey: "dryRidership", Name: "Dry Day Ridership", Color: colorYellow},
	}
}

func modeSpec(mode entities.TransportMode) entities.SeriesSpec {
	return entities.SeriesSpec{DataKey: mode.DataKey(), Name: mode.String(), Color: modeColors[mode]}
}
