package testutils

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (entities.APICacheEntity, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.APICacheEntity), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, data entities.APICacheEntity, ttl time.Duration) error {
	args := m.Called(ctx, key, data, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockCache) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetView(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]byte), args.Bool(1)
}

func (m *MockCacheService) CacheView(ctx context.Context, view, key string, data []byte) error {
	args := m.Called(ctx, view, key, data)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateViews(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) CleanupExpiredCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) SaveReport(ctx context.Context, report entities.ExcelReportEntity) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) FindReportByID(ctx context.Context, reportID string) (entities.ExcelReportEntity, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.ExcelReportEntity), args.Error(1)
}

func (m *MockReportRepository) FindReport(ctx context.Context, kind entities.ReportKind, filters entities.ReportFilters, datasetVersion string) (entities.ExcelReportEntity, error) {
	args := m.Called(ctx, kind, filters, datasetVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.ExcelReportEntity), args.Error(1)
}

func (m *MockReportRepository) CleanupExpiredReports(ctx context.Context, now time.Time) ([]entities.ExcelReportEntity, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ExcelReportEntity), args.Error(1)
}

func (m *MockReportRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockReportStorage struct {
	mock.Mock
}

func (m *MockReportStorage) UploadReport(ctx context.Context, report entities.ExcelReportEntity, data io.Reader) error {
	args := m.Called(ctx, report, data)
	return args.Error(0)
}

func (m *MockReportStorage) DownloadReport(ctx context.Context, report entities.ExcelReportEntity) (io.ReadCloser, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockReportStorage) DeleteReport(ctx context.Context, report entities.ExcelReportEntity) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportStorage) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockExcelGenerator struct {
	mock.Mock
}

func (m *MockExcelGenerator) GenerateRidershipReport(ctx context.Context, content entities.ReportContent) ([]byte, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, name string, interval time.Duration, task ports.Task) error {
	args := m.Called(ctx, name, interval, task)
	return args.Error(0)
}

func (m *MockScheduler) Stop() {
	m.Called()
}

func (m *MockScheduler) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockDatasetProvider struct {
	mock.Mock
}

func (m *MockDatasetProvider) Current() *entities.Dataset {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*entities.Dataset)
}

func (m *MockDatasetProvider) Regenerate(ctx context.Context, seed int64) (*entities.Dataset, error) {
	args := m.Called(ctx, seed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Dataset), args.Error(1)
}

func (m *MockDatasetProvider) Subscribe(listener ports.DatasetListener) {
	m.Called(listener)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Overview(ctx context.Context) (*entities.DashboardView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DashboardView), args.Error(1)
}

func (m *MockDashboardService) TimeSeries(ctx context.Context, mode entities.ModeFilter, timeRange entities.TimeRange) (*entities.TimeSeriesView, error) {
	args := m.Called(ctx, mode, timeRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TimeSeriesView), args.Error(1)
}

func (m *MockDashboardService) Routes(ctx context.Context, mode entities.ModeFilter) (*entities.RoutesView, error) {
	args := m.Called(ctx, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RoutesView), args.Error(1)
}

func (m *MockDashboardService) Weather(ctx context.Context, condition entities.WeatherCondition) (*entities.WeatherView, error) {
	args := m.Called(ctx, condition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WeatherView), args.Error(1)
}

func (m *MockDashboardService) Geospatial(ctx context.Context, mode entities.ModeFilter, period entities.DayPeriod) (*entities.GeospatialView, error) {
	args := m.Called(ctx, mode, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GeospatialView), args.Error(1)
}

func (m *MockDashboardService) DatasetInfo(ctx context.Context) entities.DatasetInfo {
	args := m.Called(ctx)
	return args.Get(0).(entities.DatasetInfo)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GenerateReport(ctx context.Context, request entities.ReportRequest) (entities.ExcelReportEntity, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.ExcelReportEntity), args.Error(1)
}

func (m *MockReportService) GetReport(ctx context.Context, reportID string) (entities.ExcelReportEntity, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.ExcelReportEntity), args.Error(1)
}

func (m *MockReportService) DownloadReport(ctx context.Context, reportID string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

func (m *MockReportService) CleanupExpiredReports(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockReportService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishDatasetEvent(ctx context.Context, event entities.DatasetEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
