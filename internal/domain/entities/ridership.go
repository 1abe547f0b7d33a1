package entities

import (
	"fmt"
	"time"
)

// DailyUsage is one simulated day of passenger counts per transport mode.
type DailyUsage struct {
	Date         string    `json:"date"`
	CalendarDate time.Time `json:"calendarDate"`
	Train        int       `json:"train"`
	Bus          int       `json:"bus"`
	Ferry        int       `json:"ferry"`
	LightRail    int       `json:"lightRail"`
	Day          string    `json:"day"`
}

func (d DailyUsage) Total() int {
	return d.Train + d.Bus + d.Ferry + d.LightRail
}

func (d DailyUsage) Count(mode TransportMode) int {
	switch mode {
	case TransportTrain:
		return d.Train
	case TransportBus:
		return d.Bus
	case TransportFerry:
		return d.Ferry
	case TransportLightRail:
		return d.LightRail
	}
	return 0
}

func (d DailyUsage) Validate() error {
	for _, mode := range TransportModes {
		if d.Count(mode) < 0 {
			return ValidationError{Field: mode.DataKey(), Reason: "must not be negative"}
		}
	}
	if !d.CalendarDate.IsZero() && d.Day != WeekdayLabel(d.CalendarDate) {
		return ValidationError{Field: "day", Reason: fmt.Sprintf("%s does not match %s", d.Day, d.CalendarDate.Format("2006-01-02"))}
	}
	return nil
}

// WeatherImpact is one simulated day of weather and the resulting ridership.
type WeatherImpact struct {
	Date           string    `json:"date"`
	CalendarDate   time.Time `json:"calendarDate"`
	Temperature    int       `json:"temperature"`
	RainMM         int       `json:"rainMM"`
	TotalRidership int       `json:"totalRidership"`
	Day            string    `json:"day"`
}

func (w WeatherImpact) IsRainy() bool { return w.RainMM > 0 }

func (w WeatherImpact) Validate() error {
	if w.RainMM < 0 {
		return ValidationError{Field: "rainMM", Reason: "must not be negative"}
	}
	if w.TotalRidership < 0 {
		return ValidationError{Field: "totalRidership", Reason: "must not be negative"}
	}
	return nil
}

type HourlyUsage struct {
	Hour       int    `json:"hourOfDay"`
	Label      string `json:"hour"`
	Passengers int    `json:"passengers"`
}

func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}

type Route struct {
	Name       string `json:"route" yaml:"route" validate:"required"`
	Passengers int    `json:"passengers" yaml:"passengers" validate:"gte=0"`
	Mode       string `json:"mode" yaml:"mode" validate:"required"`
}

type MetricChange struct {
	Value      string `json:"value" yaml:"value" validate:"required"`
	IsPositive bool   `json:"isPositive" yaml:"is_positive"`
}

// Metric is a KPI card: a title, a preformatted value and an optional change.
type Metric struct {
	Title  string        `json:"title" yaml:"title" validate:"required"`
	Value  string        `json:"value" yaml:"value" validate:"required"`
	Change *MetricChange `json:"change,omitempty" yaml:"change"`
}

type ModeShare struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Value int    `json:"value" yaml:"value" validate:"gte=0,lte=100"`
}

type ModeComparison struct {
	Mode               string  `json:"mode" yaml:"mode" validate:"required"`
	AvgTripMinutes     int     `json:"avgTripMinutes" yaml:"avg_trip_minutes" validate:"gt=0"`
	Satisfaction       int     `json:"satisfaction" yaml:"satisfaction" validate:"gte=0,lte=100"`
	SatisfactionChange float64 `json:"satisfactionChange" yaml:"satisfaction_change"`
	Utilisation        int     `json:"utilisation" yaml:"utilisation" validate:"gte=0,lte=100"`
	UtilisationLevel   string  `json:"utilisationLevel" yaml:"-"`
}

type StationActivity struct {
	Station    string  `json:"station" yaml:"station" validate:"required"`
	Passengers int     `json:"passengers" yaml:"passengers" validate:"gte=0"`
	Change     float64 `json:"change" yaml:"change"`
}

// Dataset is one generated snapshot. It is never mutated after generation;
// a refresh replaces it as a whole.
type Dataset struct {
	Version             string            `json:"version"`
	Seed                int64             `json:"seed"`
	GeneratedAt         time.Time         `json:"generatedAt"`
	StartDate           time.Time         `json:"startDate"`
	DailyUsage          []DailyUsage      `json:"dailyUsage"`
	WeatherImpact       []WeatherImpact   `json:"weatherImpact"`
	HourlyUsage         []HourlyUsage     `json:"hourlyUsage"`
	Routes              []Route           `json:"routes"`
	Metrics             []Metric          `json:"metrics"`
	ModeShare           []ModeShare       `json:"modeShare"`
	ModeComparison      []ModeComparison  `json:"modeComparison"`
	OriginStations      []StationActivity `json:"originStations"`
	DestinationStations []StationActivity `json:"destinationStations"`
}

func (d *Dataset) Validate() error {
	if d.Version == "" {
		return ValidationError{Field: "version", Reason: "must not be empty"}
	}
	for i, rec := range d.DailyUsage {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("daily usage %d: %w", i, err)
		}
	}
	for i, rec := range d.WeatherImpact {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("weather impact %d: %w", i, err)
		}
	}
	if len(d.HourlyUsage) != 24 {
		return ValidationError{Field: "hourlyUsage", Reason: fmt.Sprintf("expected 24 entries, got %d", len(d.HourlyUsage))}
	}
	return nil
}

var weekdayLabels = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Weekdays returns the weekday labels Sun..Sat.
func Weekdays() []string {
	out := make([]string, len(weekdayLabels))
	copy(out, weekdayLabels[:])
	return out
}

func WeekdayLabel(t time.Time) string {
	return weekdayLabels[t.Weekday()]
}

// DateLabel formats a day as "D/M", e.g. "1/3" for the first of March.
func DateLabel(t time.Time) string {
	return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
}
