package entities

import (
	"time"
)

type ReportKind string

const (
	ReportKindDashboard  ReportKind = "dashboard"
	ReportKindTimeSeries ReportKind = "time_series"
	ReportKindRoutes     ReportKind = "routes"
	ReportKindWeather    ReportKind = "weather"
	ReportKindFull       ReportKind = "full"
)

const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportRequest is the body of POST /reports. Empty selections fall back to
// the same defaults the view endpoints use.
type ReportRequest struct {
	Kind      ReportKind `json:"kind" validate:"required,oneof=dashboard time_series routes weather full"`
	Mode      string     `json:"mode"`
	Range     string     `json:"range"`
	Condition string     `json:"condition"`
}

// ReportFilters is a parsed ReportRequest.
type ReportFilters struct {
	Mode      ModeFilter       `json:"mode"`
	Range     TimeRange        `json:"range"`
	Condition WeatherCondition `json:"condition"`
}

func (r ReportRequest) Parse() (ReportFilters, error) {
	mode, err := ParseModeFilter(r.Mode)
	if err != nil {
		return ReportFilters{}, err
	}
	timeRange, err := ParseTimeRange(r.Range)
	if err != nil {
		return ReportFilters{}, err
	}
	condition, err := ParseWeatherCondition(r.Condition)
	if err != nil {
		return ReportFilters{}, err
	}
	return ReportFilters{Mode: mode, Range: timeRange, Condition: condition}, nil
}

type ExcelReportEntity interface {
	GetID() string
	GetKind() ReportKind
	GetFilters() ReportFilters
	GetDatasetVersion() string
	GetFileName() string
	GetFileSize() int64
	GetStoragePath() string
	GetDownloadURL() string
	GetChecksum() string
	GetGeneratedAt() time.Time
	GetExpiresAt() *time.Time
	IsExpired(now time.Time) bool
}

type ExcelReport struct {
	ID             string        `json:"id"`
	Kind           ReportKind    `json:"kind"`
	Filters        ReportFilters `json:"filters"`
	DatasetVersion string        `json:"dataset_version"`
	FileName       string        `json:"file_name"`
	FileSize       int64         `json:"file_size"`
	StoragePath    string        `json:"storage_path"`
	DownloadURL    string        `json:"download_url,omitempty"`
	Checksum       string        `json:"checksum"`
	GeneratedAt    time.Time     `json:"generated_at"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
}

func (e *ExcelReport) GetID() string             { return e.ID }
func (e *ExcelReport) GetKind() ReportKind       { return e.Kind }
func (e *ExcelReport) GetFilters() ReportFilters { return e.Filters }
func (e *ExcelReport) GetDatasetVersion() string { return e.DatasetVersion }
func (e *ExcelReport) GetFileName() string       { return e.FileName }
func (e *ExcelReport) GetFileSize() int64        { return e.FileSize }
func (e *ExcelReport) GetStoragePath() string    { return e.StoragePath }
func (e *ExcelReport) GetDownloadURL() string    { return e.DownloadURL }
func (e *ExcelReport) GetChecksum() string       { return e.Checksum }
func (e *ExcelReport) GetGeneratedAt() time.Time { return e.GeneratedAt }
func (e *ExcelReport) GetExpiresAt() *time.Time  { return e.ExpiresAt }

func (e *ExcelReport) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// ReportContent carries the views rendered into a workbook. Nil views are
// skipped.
type ReportContent struct {
	Kind       ReportKind
	Dataset    DatasetInfo
	Filters    ReportFilters
	Dashboard  *DashboardView
	TimeSeries *TimeSeriesView
	Routes     *RoutesView
	Weather    *WeatherView
}
