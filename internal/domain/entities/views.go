package entities

import (
	"time"
)

// SeriesSpec tells a chart which record field to plot and how to label it.
type SeriesSpec struct {
	DataKey string `json:"dataKey"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

// DailyUsageRow is a daily usage record as sent to charts. Total is set only
// when every mode is selected.
type DailyUsageRow struct {
	DailyUsage
	Total *int `json:"total,omitempty"`
}

type TemperatureBucket struct {
	Range        string `json:"range"`
	Min          int    `json:"min"`
	Max          int    `json:"max"`
	AvgRidership int    `json:"avgRidership"`
	Days         int    `json:"days"`
}

type WeekdayComparison struct {
	Day            string  `json:"day"`
	RainyRidership int     `json:"rainyRidership"`
	DryRidership   int     `json:"dryRidership"`
	RainyDays      int     `json:"rainyDays"`
	DryDays        int     `json:"dryDays"`
	ImpactPercent  float64 `json:"impactPercent"`
}

type WeatherSummary struct {
	RainyAvgRidership int     `json:"rainyAvgRidership"`
	DryAvgRidership   int     `json:"dryAvgRidership"`
	RainImpactPercent float64 `json:"rainImpactPercent"`
	OptimalRange      string  `json:"optimalRange,omitempty"`
	ResilientDay      string  `json:"resilientDay,omitempty"`
}

type PeriodSummary struct {
	Period       DayPeriod     `json:"period"`
	Label        string        `json:"label"`
	Passengers   int           `json:"passengers"`
	SharePercent float64       `json:"sharePercent"`
	Hours        []HourlyUsage `json:"hours"`
}

type DashboardView struct {
	Metrics      []Metric        `json:"metrics"`
	DailyUsage   []DailyUsageRow `json:"dailyUsage"`
	DailySeries  []SeriesSpec    `json:"dailySeries"`
	HourlyUsage  []HourlyUsage   `json:"hourlyUsage"`
	HourlySeries []SeriesSpec    `json:"hourlySeries"`
	TopRoutes    []Route         `json:"topRoutes"`
	RouteSeries  []SeriesSpec    `json:"routeSeries"`
	ModeShare    []ModeShare     `json:"modeShare"`
	ShareSeries  []SeriesSpec    `json:"shareSeries"`
}

type TimeSeriesView struct {
	Mode         ModeFilter      `json:"mode"`
	Range        TimeRange       `json:"range"`
	DailyUsage   []DailyUsageRow `json:"dailyUsage"`
	DailySeries  []SeriesSpec    `json:"dailySeries"`
	HourlyUsage  []HourlyUsage   `json:"hourlyUsage"`
	HourlySeries []SeriesSpec    `json:"hourlySeries"`
}

type RoutesView struct {
	Mode           ModeFilter       `json:"mode"`
	ChartRoutes    []Route          `json:"chartRoutes"`
	DetailRoutes   []Route          `json:"detailRoutes"`
	RouteSeries    []SeriesSpec     `json:"routeSeries"`
	ModeComparison []ModeComparison `json:"modeComparison"`
}

type WeatherView struct {
	Condition          WeatherCondition    `json:"condition"`
	Records            []WeatherImpact     `json:"records"`
	RecordSeries       []SeriesSpec        `json:"recordSeries"`
	TemperatureBuckets []TemperatureBucket `json:"temperatureBuckets"`
	BucketSeries       []SeriesSpec        `json:"bucketSeries"`
	Weekdays           []WeekdayComparison `json:"weekdays"`
	WeekdaySeries      []SeriesSpec        `json:"weekdaySeries"`
	Summary            WeatherSummary      `json:"summary"`
}

// GeospatialView lists the busiest stations with the routes of the selected
// mode and the passenger load of the selected time of day.
type GeospatialView struct {
	Mode                ModeFilter        `json:"mode"`
	Period              PeriodSummary     `json:"period"`
	Routes              []Route           `json:"routes"`
	OriginStations      []StationActivity `json:"originStations"`
	DestinationStations []StationActivity `json:"destinationStations"`
}

type DatasetInfo struct {
	Version       string    `json:"version"`
	Seed          int64     `json:"seed"`
	GeneratedAt   time.Time `json:"generatedAt"`
	StartDate     time.Time `json:"startDate"`
	Days          int       `json:"days"`
	HourlyRecords int       `json:"hourlyRecords"`
	Routes        int       `json:"routes"`
}
