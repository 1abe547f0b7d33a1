package excel

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const (
	SheetSummary    = "Summary"
	SheetDashboard  = "Dashboard"
	SheetTimeSeries = "Time Series"
	SheetRoutes     = "Routes"
	SheetWeather    = "Weather"
)

type ExcelGenerator struct {
	logger logger.Logger
	now    func() time.Time
}

func NewExcelGenerator(log logger.Logger) *ExcelGenerator {
	return &ExcelGenerator{
		logger: logger.Component(log, "excel_generator"),
		now:    time.Now,
	}
}

// GenerateRidershipReport writes a Summary sheet plus one sheet per view
// present in content.
func (e *ExcelGenerator) GenerateRidershipReport(ctx context.Context, content entities.ReportContent) ([]byte, error) {
	e.logger.Infof("Generating %s report for dataset %s", content.Kind, content.Dataset.Version)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("Ridership Report - %s", content.Kind),
		Subject:     "Public Transport Ridership Analysis",
		Creator:     "Ridership API Service",
		Description: fmt.Sprintf("Simulated ridership from %s, seed %d", content.Dataset.StartDate.Format(config.DateLayout), content.Dataset.Seed),
		Created:     e.now().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1A73E8"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}
	styles := sheetStyles{header: headerStyle, title: titleStyle}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}

	builders := []struct {
		name  string
		skip  bool
		build func(w *sheetWriter)
	}{
		{SheetSummary, false, func(w *sheetWriter) { e.writeSummary(w, content) }},
		{SheetDashboard, content.Dashboard == nil, func(w *sheetWriter) { e.writeDashboard(w, content.Dashboard) }},
		{SheetTimeSeries, content.TimeSeries == nil, func(w *sheetWriter) { e.writeTimeSeries(w, content.TimeSeries) }},
		{SheetRoutes, content.Routes == nil, func(w *sheetWriter) { e.writeRoutes(w, content.Routes) }},
		{SheetWeather, content.Weather == nil, func(w *sheetWriter) { e.writeWeather(w, content.Weather) }},
	}

	for _, b := range builders {
		if b.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		w, err := newSheetWriter(f, b.name, styles)
		if err != nil {
			return nil, err
		}
		b.build(w)
		if w.err != nil {
			return nil, fmt.Errorf("failed to create %s sheet: %w", b.name, w.err)
		}
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel to buffer: %w", err)
	}

	e.logger.Infof("Generated %s report, %d bytes", content.Kind, buf.Len())
	return buf.Bytes(), nil
}

func (e *ExcelGenerator) writeSummary(w *sheetWriter, content entities.ReportContent) {
	ds := content.Dataset
	w.title("Ridership Report")
	w.table([]string{"Field", "Value"}, [][]interface{}{
		{"Report", string(content.Kind)},
		{"Generated", e.now().Format("2006-01-02 15:04")},
		{"Dataset version", ds.Version},
		{"Seed", ds.Seed},
		{"Start date", ds.StartDate.Format(config.DateLayout)},
		{"Days", ds.Days},
		{"Hourly records", ds.HourlyRecords},
		{"Routes", ds.Routes},
		{"Mode filter", string(content.Filters.Mode)},
		{"Time range", string(content.Filters.Range)},
		{"Weather condition", string(content.Filters.Condition)},
	})
	w.widths(22, 40)
}

func (e *ExcelGenerator) writeDashboard(w *sheetWriter, view *entities.DashboardView) {
	w.title("Key Metrics")
	rows := make([][]interface{}, 0, len(view.Metrics))
	for _, m := range view.Metrics {
		change := ""
		if m.Change != nil {
			change = m.Change.Value
		}
		rows = append(rows, []interface{}{m.Title, m.Value, change})
	}
	w.table([]string{"Metric", "Value", "Change"}, rows)

	w.title("Daily Usage")
	w.dailyUsage(view.DailyUsage, nil)

	w.title("Hourly Usage")
	w.hourlyUsage(view.HourlyUsage)

	w.title("Top Routes")
	w.routes(view.TopRoutes)

	w.title("Mode Share")
	rows = make([][]interface{}, 0, len(view.ModeShare))
	for _, s := range view.ModeShare {
		rows = append(rows, []interface{}{s.Name, s.Value})
	}
	w.table([]string{"Mode", "Share (%)"}, rows)

	w.widths(28, 14, 14, 14, 14, 14, 8)
}

func (e *ExcelGenerator) writeTimeSeries(w *sheetWriter, view *entities.TimeSeriesView) {
	w.title(fmt.Sprintf("Daily Usage (%s, %s)", view.Mode, view.Range))
	w.dailyUsage(view.DailyUsage, view.DailySeries)

	w.title("Hourly Usage")
	w.hourlyUsage(view.HourlyUsage)

	w.widths(12, 14, 14, 14, 14, 14, 8)
}

func (e *ExcelGenerator) writeRoutes(w *sheetWriter, view *entities.RoutesView) {
	w.title(fmt.Sprintf("Busiest Routes (%s)", view.Mode))
	w.routes(view.ChartRoutes)

	w.title("Mode Comparison")
	rows := make([][]interface{}, 0, len(view.ModeComparison))
	for _, c := range view.ModeComparison {
		rows = append(rows, []interface{}{c.Mode, c.AvgTripMinutes, c.Satisfaction, c.SatisfactionChange, c.Utilisation, c.UtilisationLevel})
	}
	w.table([]string{"Mode", "Avg Trip (min)", "Satisfaction (%)", "Satisfaction Change", "Utilisation (%)", "Level"}, rows)

	w.widths(32, 16, 18, 20, 16, 10)
}

func (e *ExcelGenerator) writeWeather(w *sheetWriter, view *entities.WeatherView) {
	w.title(fmt.Sprintf("Weather Impact (%s)", view.Condition))
	rows := make([][]interface{}, 0, len(view.Records))
	for _, r := range view.Records {
		rows = append(rows, []interface{}{r.CalendarDate.Format(config.DateLayout), r.Day, r.Temperature, r.RainMM, r.TotalRidership})
	}
	w.table([]string{"Date", "Day", "Temperature (°C)", "Rainfall (mm)", "Total Ridership"}, rows)

	w.title("Temperature")
	rows = make([][]interface{}, 0, len(view.TemperatureBuckets))
	for _, b := range view.TemperatureBuckets {
		rows = append(rows, []interface{}{b.Range, b.Days, b.AvgRidership})
	}
	w.table([]string{"Range", "Days", "Average Ridership"}, rows)

	w.title("Rainy vs Dry by Weekday")
	rows = make([][]interface{}, 0, len(view.Weekdays))
	for _, d := range view.Weekdays {
		rows = append(rows, []interface{}{d.Day, d.RainyRidership, d.DryRidership, d.ImpactPercent})
	}
	w.table([]string{"Day", "Rainy Ridership", "Dry Ridership", "Impact (%)"}, rows)

	s := view.Summary
	w.title("Summary")
	w.table([]string{"Field", "Value"}, [][]interface{}{
		{"Rainy day average", s.RainyAvgRidership},
		{"Dry day average", s.DryAvgRidership},
		{"Rain impact (%)", s.RainImpactPercent},
		{"Optimal temperature", s.OptimalRange},
		{"Most resilient day", s.ResilientDay},
	})

	w.widths(22, 16, 18, 16, 16)
}

type sheetStyles struct {
	header int
	title  int
}

// sheetWriter stacks titled tables down a sheet. The first error sticks and
// later writes are skipped.
type sheetWriter struct {
	f      *excelize.File
	name   string
	styles sheetStyles
	row    int
	err    error
}

func newSheetWriter(f *excelize.File, name string, styles sheetStyles) (*sheetWriter, error) {
	if idx, _ := f.GetSheetIndex(name); idx < 0 {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	return &sheetWriter{f: f, name: name, styles: styles, row: 1}, nil
}

func (w *sheetWriter) title(text string) {
	if w.err != nil {
		return
	}
	if w.row > 1 {
		w.row++
	}
	c := cell(1, w.row)
	if w.err = w.f.SetCellValue(w.name, c, text); w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(w.name, c, c, w.styles.title)
	w.row++
}

func (w *sheetWriter) table(headers []string, rows [][]interface{}) {
	if w.err != nil {
		return
	}

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if w.err = w.f.SetSheetRow(w.name, cell(1, w.row), &headerRow); w.err != nil {
		return
	}
	if w.err = w.f.SetCellStyle(w.name, cell(1, w.row), cell(len(headers), w.row), w.styles.header); w.err != nil {
		return
	}
	w.row++

	for _, r := range rows {
		if w.err = w.f.SetSheetRow(w.name, cell(1, w.row), &r); w.err != nil {
			return
		}
		w.row++
	}
}

// dailyUsage writes one column per mode, or only the columns named by
// series when it is given.
func (w *sheetWriter) dailyUsage(records []entities.DailyUsageRow, series []entities.SeriesSpec) {
	modes := entities.TransportModes
	if len(series) > 0 {
		modes = modes[:0:0]
		for _, s := range series {
			for _, m := range entities.TransportModes {
				if m.DataKey() == s.DataKey {
					modes = append(modes, m)
				}
			}
		}
	}

	headers := []string{"Date", "Day"}
	for _, m := range modes {
		headers = append(headers, m.String())
	}
	headers = append(headers, "Total")

	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		row := []interface{}{rec.Date, rec.Day}
		for _, m := range modes {
			row = append(row, rec.Count(m))
		}
		row = append(row, rec.DailyUsage.Total())
		rows = append(rows, row)
	}
	w.table(headers, rows)
}

func (w *sheetWriter) hourlyUsage(records []entities.HourlyUsage) {
	rows := make([][]interface{}, 0, len(records))
	for _, h := range records {
		rows = append(rows, []interface{}{h.Label, h.Passengers})
	}
	w.table([]string{"Hour", "Passengers"}, rows)
}

func (w *sheetWriter) routes(routes []entities.Route) {
	rows := make([][]interface{}, 0, len(routes))
	for _, r := range routes {
		rows = append(rows, []interface{}{r.Name, r.Mode, r.Passengers})
	}
	w.table([]string{"Route", "Mode", "Passengers"}, rows)
}

func (w *sheetWriter) widths(widths ...float64) {
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col := colLetter(i + 1)
		w.err = w.f.SetColWidth(w.name, col, col, width)
	}
}

func cell(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}

func colLetter(col int) string {
	letter, _ := excelize.ColumnNumberToName(col)
	return letter
}
