package ports

import (
	"context"
	"io"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

type DashboardService interface {
	Overview(ctx context.Context) (*entities.DashboardView, error)
	TimeSeries(ctx context.Context, mode entities.ModeFilter, timeRange entities.TimeRange) (*entities.TimeSeriesView, error)
	Routes(ctx context.Context, mode entities.ModeFilter) (*entities.RoutesView, error)
	Weather(ctx context.Context, condition entities.WeatherCondition) (*entities.WeatherView, error)
	Geospatial(ctx context.Context, mode entities.ModeFilter, period entities.DayPeriod) (*entities.GeospatialView, error)
	DatasetInfo(ctx context.Context) entities.DatasetInfo
}

type ReportService interface {
	GenerateReport(ctx context.Context, request entities.ReportRequest) (entities.ExcelReportEntity, error)
	GetReport(ctx context.Context, reportID string) (entities.ExcelReportEntity, error)
	DownloadReport(ctx context.Context, reportID string) (io.ReadCloser, string, error)
	CleanupExpiredReports(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

type CacheService interface {
	GetView(ctx context.Context, key string) ([]byte, bool)
	CacheView(ctx context.Context, view, key string, data []byte) error
	InvalidateViews(ctx context.Context) error
	CleanupExpiredCache(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

type APIServer interface {
	Start() error
	Stop(ctx context.Context) error
}
