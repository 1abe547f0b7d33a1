package excel

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

func openReport(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func testContent(kind entities.ReportKind) entities.ReportContent {
	return entities.ReportContent{
		Kind: kind,
		Dataset: entities.DatasetInfo{
			Version:   "v1",
			Seed:      42,
			StartDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			Days:      30,
		},
		Filters: entities.ReportFilters{Mode: entities.ModeTrain, Range: entities.RangeWeek, Condition: entities.ConditionRain},
	}
}

func TestExcelGenerator_Routes(t *testing.T) {
	gen := NewExcelGenerator(logger.Discard())

	content := testContent(entities.ReportKindRoutes)
	content.Routes = &entities.RoutesView{
		Mode: entities.ModeTrain,
		ChartRoutes: []entities.Route{
			{Name: "Central to Parramatta", Passengers: 42500, Mode: "Train"},
			{Name: "Town Hall to Bondi Junction", Passengers: 38700, Mode: "Train"},
		},
		ModeComparison: []entities.ModeComparison{
			{Mode: "Train", AvgTripMinutes: 35, Satisfaction: 82, Utilisation: 78, UtilisationLevel: "high"},
		},
	}

	data, err := gen.GenerateRidershipReport(context.Background(), content)
	require.NoError(t, err)

	f := openReport(t, data)
	assert.Equal(t, []string{SheetSummary, SheetRoutes}, f.GetSheetList())

	t.Run("summary", func(t *testing.T) {
		title, _ := f.GetCellValue(SheetSummary, "A1")
		assert.Equal(t, "Ridership Report", title)

		rows, err := f.GetRows(SheetSummary)
		require.NoError(t, err)
		assert.Equal(t, []string{"Field", "Value"}, rows[1])
		assert.Equal(t, []string{"Report", "routes"}, rows[2])
		assert.Equal(t, []string{"Seed", "42"}, rows[5])
		assert.Equal(t, []string{"Start date", "2025-03-01"}, rows[6])
		assert.Equal(t, []string{"Mode filter", "train"}, rows[10])
	})

	t.Run("routes", func(t *testing.T) {
		rows, err := f.GetRows(SheetRoutes)
		require.NoError(t, err)

		assert.Equal(t, "Busiest Routes (train)", rows[0][0])
		assert.Equal(t, []string{"Route", "Mode", "Passengers"}, rows[1])
		assert.Equal(t, []string{"Central to Parramatta", "Train", "42500"}, rows[2])
		assert.Equal(t, "Mode Comparison", rows[5][0])
		assert.Equal(t, "high", rows[7][5])
	})

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "Ridership Report - routes", props.Title)
}

func TestExcelGenerator_Full(t *testing.T) {
	gen := NewExcelGenerator(logger.Discard())

	day := entities.DailyUsage{Date: "1/3", Train: 100, Bus: 50, Ferry: 10, LightRail: 5, Day: "Sat"}
	content := testContent(entities.ReportKindFull)
	content.Dashboard = &entities.DashboardView{
		Metrics:     []entities.Metric{{Title: "Total Daily Passengers", Value: "1.2M", Change: &entities.MetricChange{Value: "+3.2%", IsPositive: true}}},
		DailyUsage:  []entities.DailyUsageRow{{DailyUsage: day}},
		HourlyUsage: []entities.HourlyUsage{{Hour: 8, Label: "8:00", Passengers: 45000}},
		ModeShare:   []entities.ModeShare{{Name: "Train", Value: 45}},
	}
	content.TimeSeries = &entities.TimeSeriesView{
		Mode:        entities.ModeFerry,
		Range:       entities.RangeWeek,
		DailyUsage:  []entities.DailyUsageRow{{DailyUsage: day}},
		DailySeries: []entities.SeriesSpec{{DataKey: "ferry", Name: "Ferry"}},
	}
	content.Routes = &entities.RoutesView{Mode: entities.ModeAll}
	content.Weather = &entities.WeatherView{
		Condition: entities.ConditionAll,
		Records: []entities.WeatherImpact{{
			CalendarDate: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), Day: "Mon", Temperature: 22, RainMM: 12, TotalRidership: 300000,
		}},
		Summary: entities.WeatherSummary{OptimalRange: "24-26°C", ResilientDay: "Tue"},
	}

	data, err := gen.GenerateRidershipReport(context.Background(), content)
	require.NoError(t, err)

	f := openReport(t, data)
	assert.Equal(t, []string{SheetSummary, SheetDashboard, SheetTimeSeries, SheetRoutes, SheetWeather}, f.GetSheetList())

	dashboard, err := f.GetRows(SheetDashboard)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total Daily Passengers", "1.2M", "+3.2%"}, dashboard[2])
	assert.Equal(t, []string{"Date", "Day", "Train", "Bus", "Ferry", "Light Rail", "Total"}, dashboard[5])
	assert.Equal(t, []string{"1/3", "Sat", "100", "50", "10", "5", "165"}, dashboard[6])

	series, err := f.GetRows(SheetTimeSeries)
	require.NoError(t, err)
	assert.Equal(t, "Daily Usage (ferry, week)", series[0][0])
	assert.Equal(t, []string{"Date", "Day", "Ferry", "Total"}, series[1])
	assert.Equal(t, []string{"1/3", "Sat", "10", "165"}, series[2])

	weather, err := f.GetRows(SheetWeather)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-03", "Mon", "22", "12", "300000"}, weather[2])

	optimal, _ := f.GetCellValue(SheetWeather, "B"+strconv.Itoa(len(weather)-1))
	assert.Equal(t, "24-26°C", optimal)
}

func TestExcelGenerator_CancelledContext(t *testing.T) {
	gen := NewExcelGenerator(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.GenerateRidershipReport(ctx, testContent(entities.ReportKindDashboard))
	assert.ErrorIs(t, err, context.Canceled)
}
