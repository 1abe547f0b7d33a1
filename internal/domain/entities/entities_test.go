package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModeFilter(t *testing.T) {
	testCases := []struct {
		input    string
		expected ModeFilter
	}{
		{"", ModeAll},
		{"ALL", ModeAll},
		{"train", ModeTrain},
		{"Bus", ModeBus},
		{" ferry ", ModeFerry},
		{"Light Rail", ModeLightRail},
		{"light-rail", ModeLightRail},
		{"light_rail", ModeLightRail},
		{"lightRail", ModeLightRail},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseModeFilter(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		_, err := ParseModeFilter("tram")
		require.Error(t, err)

		var verr ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "mode", verr.Field)
	})
}

func TestModeFilterMatches(t *testing.T) {
	assert.True(t, ModeAll.Matches("Ferry"))
	assert.True(t, ModeLightRail.Matches("Light Rail"))
	assert.True(t, ModeLightRail.Matches("light rail"))
	assert.True(t, ModeTrain.Matches("TRAIN"))
	assert.False(t, ModeTrain.Matches("Bus"))
	assert.False(t, ModeFilter("monorail").Matches("Monorail"))

	mode, ok := ModeBus.Mode()
	assert.True(t, ok)
	assert.Equal(t, TransportBus, mode)

	_, ok = ModeAll.Mode()
	assert.False(t, ok)
}

func TestSelections(t *testing.T) {
	t.Run("weather condition", func(t *testing.T) {
		c, err := ParseWeatherCondition("Rain")
		require.NoError(t, err)
		assert.Equal(t, ConditionRain, c)

		c, err = ParseWeatherCondition("")
		require.NoError(t, err)
		assert.Equal(t, ConditionAll, c)

		_, err = ParseWeatherCondition("snow")
		assert.Error(t, err)
	})

	t.Run("time range", func(t *testing.T) {
		r, err := ParseTimeRange("week")
		require.NoError(t, err)
		assert.Equal(t, 7, r.Days())

		r, err = ParseTimeRange("")
		require.NoError(t, err)
		assert.Equal(t, RangeMonth, r)
		assert.Equal(t, 30, r.Days())

		assert.Equal(t, 90, RangeQuarter.Days())

		_, err = ParseTimeRange("year")
		assert.Error(t, err)
	})

	t.Run("day period", func(t *testing.T) {
		p, err := ParseDayPeriod("evening")
		require.NoError(t, err)
		from, to := p.Hours()
		assert.Equal(t, 16, from)
		assert.Equal(t, 18, to)

		p, err = ParseDayPeriod("")
		require.NoError(t, err)
		assert.Equal(t, PeriodMorning, p)

		from, to = PeriodAllDay.Hours()
		assert.Equal(t, 0, from)
		assert.Equal(t, 23, to)

		_, err = ParseDayPeriod("night")
		assert.Error(t, err)
	})
}

func TestDailyUsage(t *testing.T) {
	date := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	rec := DailyUsage{
		Date:         DateLabel(date),
		CalendarDate: date,
		Train:        220000,
		Bus:          185000,
		Ferry:        45000,
		LightRail:    65000,
		Day:          WeekdayLabel(date),
	}

	assert.Equal(t, "3/3", rec.Date)
	assert.Equal(t, "Mon", rec.Day)
	assert.Equal(t, 515000, rec.Total())
	assert.Equal(t, 45000, rec.Count(TransportFerry))
	assert.NoError(t, rec.Validate())

	t.Run("negative count", func(t *testing.T) {
		bad := rec
		bad.Bus = -1
		err := bad.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bus")
	})

	t.Run("weekday mismatch", func(t *testing.T) {
		bad := rec
		bad.Day = "Tue"
		assert.Error(t, bad.Validate())
	})
}

func TestWeekdays(t *testing.T) {
	days := Weekdays()
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, days)

	days[0] = "changed"
	assert.Equal(t, "Sun", Weekdays()[0])
}

func TestReportRequestParse(t *testing.T) {
	filters, err := ReportRequest{Kind: ReportKindRoutes, Mode: "Ferry"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, ModeFerry, filters.Mode)
	assert.Equal(t, RangeMonth, filters.Range)
	assert.Equal(t, ConditionAll, filters.Condition)

	_, err = ReportRequest{Kind: ReportKindWeather, Condition: "hail"}.Parse()
	assert.Error(t, err)
}

func TestExcelReportIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	assert.False(t, (&ExcelReport{}).IsExpired(now))
	assert.True(t, (&ExcelReport{ExpiresAt: &past}).IsExpired(now))
}

func TestNewDatasetRefreshedEvent(t *testing.T) {
	generatedAt := time.Date(2025, time.March, 31, 6, 0, 0, 0, time.UTC)
	current := &Dataset{Version: "v2", Seed: 5, GeneratedAt: generatedAt}

	first := NewDatasetRefreshedEvent(nil, current)
	assert.Equal(t, EventDatasetRefreshed, first.Type)
	assert.Equal(t, "v2", first.Version)
	assert.Empty(t, first.PreviousVersion)
	assert.Equal(t, int64(5), first.Seed)
	assert.Equal(t, generatedAt, first.GeneratedAt)

	next := NewDatasetRefreshedEvent(&Dataset{Version: "v1"}, current)
	assert.Equal(t, "v1", next.PreviousVersion)
}
