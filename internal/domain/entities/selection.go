package entities

import (
	"strings"
)

type TransportMode string

const (
	TransportTrain     TransportMode = "Train"
	TransportBus       TransportMode = "Bus"
	TransportFerry     TransportMode = "Ferry"
	TransportLightRail TransportMode = "Light Rail"
)

// TransportModes lists every mode in display order.
var TransportModes = []TransportMode{TransportTrain, TransportBus, TransportFerry, TransportLightRail}

// DataKey is the field name used for the mode in daily usage records and
// series specs.
func (m TransportMode) DataKey() string {
	switch m {
	case TransportTrain:
		return "train"
	case TransportBus:
		return "bus"
	case TransportFerry:
		return "ferry"
	case TransportLightRail:
		return "lightRail"
	}
	return ""
}

func (m TransportMode) String() string { return string(m) }

// ModeFilter selects a single transport mode or all of them.
type ModeFilter string

const (
	ModeAll       ModeFilter = "all"
	ModeTrain     ModeFilter = "train"
	ModeBus       ModeFilter = "bus"
	ModeFerry     ModeFilter = "ferry"
	ModeLightRail ModeFilter = "lightRail"
)

// ParseModeFilter accepts mode names case-insensitively, ignoring spaces,
// dashes and underscores. An empty string means all modes.
func ParseModeFilter(s string) (ModeFilter, error) {
	switch normalizeLabel(s) {
	case "", "all":
		return ModeAll, nil
	case "train":
		return ModeTrain, nil
	case "bus":
		return ModeBus, nil
	case "ferry":
		return ModeFerry, nil
	case "lightrail":
		return ModeLightRail, nil
	}
	return "", ValidationError{Field: "mode", Reason: "must be one of all, train, bus, ferry, light rail"}
}

func (f ModeFilter) IsAll() bool { return f == ModeAll || f == "" }

// Mode returns the transport mode this filter selects, false for all.
func (f ModeFilter) Mode() (TransportMode, bool) {
	switch f {
	case ModeTrain:
		return TransportTrain, true
	case ModeBus:
		return TransportBus, true
	case ModeFerry:
		return TransportFerry, true
	case ModeLightRail:
		return TransportLightRail, true
	}
	return "", false
}

// Matches reports whether a mode label such as "Light Rail" passes the filter.
func (f ModeFilter) Matches(label string) bool {
	if f.IsAll() {
		return true
	}
	mode, ok := f.Mode()
	if !ok {
		return false
	}
	return normalizeLabel(label) == normalizeLabel(string(mode))
}

func (f ModeFilter) String() string { return string(f) }

type WeatherCondition string

const (
	ConditionAll  WeatherCondition = "all"
	ConditionRain WeatherCondition = "rain"
	ConditionDry  WeatherCondition = "dry"
)

func ParseWeatherCondition(s string) (WeatherCondition, error) {
	switch normalizeLabel(s) {
	case "", "all":
		return ConditionAll, nil
	case "rain", "rainy":
		return ConditionRain, nil
	case "dry":
		return ConditionDry, nil
	}
	return "", ValidationError{Field: "condition", Reason: "must be one of all, rain, dry"}
}

type TimeRange string

const (
	RangeWeek    TimeRange = "week"
	RangeMonth   TimeRange = "month"
	RangeQuarter TimeRange = "quarter"
)

// ParseTimeRange defaults to a month when s is empty.
func ParseTimeRange(s string) (TimeRange, error) {
	switch normalizeLabel(s) {
	case "week":
		return RangeWeek, nil
	case "", "month":
		return RangeMonth, nil
	case "quarter":
		return RangeQuarter, nil
	}
	return "", ValidationError{Field: "range", Reason: "must be one of week, month, quarter"}
}

// Days is the length of the trailing window.
func (r TimeRange) Days() int {
	switch r {
	case RangeWeek:
		return 7
	case RangeQuarter:
		return 90
	}
	return 30
}

type DayPeriod string

const (
	PeriodMorning DayPeriod = "morning"
	PeriodAllDay  DayPeriod = "all"
	PeriodEvening DayPeriod = "evening"
)

// ParseDayPeriod defaults to the morning peak when s is empty.
func ParseDayPeriod(s string) (DayPeriod, error) {
	switch normalizeLabel(s) {
	case "", "morning":
		return PeriodMorning, nil
	case "all", "allday":
		return PeriodAllDay, nil
	case "evening":
		return PeriodEvening, nil
	}
	return "", ValidationError{Field: "period", Reason: "must be one of morning, all, evening"}
}

// Hours returns the inclusive hour range covered by the period.
func (p DayPeriod) Hours() (from, to int) {
	switch p {
	case PeriodMorning:
		return 7, 9
	case PeriodEvening:
		return 16, 18
	}
	return 0, 23
}

func (p DayPeriod) Label() string {
	switch p {
	case PeriodMorning:
		return "Morning Peak (7-9 AM)"
	case PeriodEvening:
		return "Evening Peak (4-6 PM)"
	}
	return "All Day"
}

func normalizeLabel(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
