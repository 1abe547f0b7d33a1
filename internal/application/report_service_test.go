package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
	"github.com/k-shtanenko/ridership-api/internal/testutils"
)

type reportMocks struct {
	dashboard *testutils.MockDashboardService
	datasets  *testutils.MockDatasetProvider
	repo      *testutils.MockReportRepository
	excel     *testutils.MockExcelGenerator
	storage   *testutils.MockReportStorage
}

func newReportService(now time.Time) (*ReportService, *reportMocks) {
	m := &reportMocks{
		dashboard: &testutils.MockDashboardService{},
		datasets:  &testutils.MockDatasetProvider{},
		repo:      &testutils.MockReportRepository{},
		excel:     &testutils.MockExcelGenerator{},
		storage:   &testutils.MockReportStorage{},
	}
	service := NewReportService(m.dashboard, m.datasets, m.repo, m.excel, m.storage, time.Hour, "/api/v1", logger.Discard())
	service.now = func() time.Time { return now }
	return service, m
}

func TestReportService_GenerateReport(t *testing.T) {
	now := time.Date(2025, time.March, 31, 9, 30, 0, 0, time.UTC)
	ds := &entities.Dataset{Version: "v1"}
	routesFilters := entities.ReportFilters{Mode: entities.ModeTrain, Range: entities.RangeMonth, Condition: entities.ConditionAll}

	t.Run("routes report", func(t *testing.T) {
		ctx := context.Background()
		service, m := newReportService(now)

		routesView := &entities.RoutesView{Mode: entities.ModeTrain}
		m.datasets.On("Current").Return(ds)
		m.repo.On("FindReport", mock.Anything, entities.ReportKindRoutes, routesFilters, "v1").Return(nil, nil)
		m.dashboard.On("DatasetInfo", mock.Anything).Return(entities.DatasetInfo{Version: "v1"})
		m.dashboard.On("Routes", mock.Anything, entities.ModeTrain).Return(routesView, nil)
		m.excel.On("GenerateRidershipReport", mock.Anything, mock.MatchedBy(func(c entities.ReportContent) bool {
			return c.Kind == entities.ReportKindRoutes && c.Routes == routesView && c.Dashboard == nil && c.Weather == nil
		})).Return([]byte("xlsx"), nil)
		m.storage.On("UploadReport", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.repo.On("SaveReport", mock.Anything, mock.Anything).Return(nil)

		report, err := service.GenerateReport(ctx, entities.ReportRequest{Kind: entities.ReportKindRoutes, Mode: "train"})
		require.NoError(t, err)

		assert.NotEmpty(t, report.GetID())
		assert.Equal(t, entities.ReportKindRoutes, report.GetKind())
		assert.Equal(t, "v1", report.GetDatasetVersion())
		assert.Equal(t, "ridership_routes_20250331_093000.xlsx", report.GetFileName())
		assert.Equal(t, int64(4), report.GetFileSize())
		assert.Equal(t, "/api/v1/reports/"+report.GetID()+"/download", report.GetDownloadURL())
		assert.Len(t, report.GetChecksum(), 64)
		require.NotNil(t, report.GetExpiresAt())
		assert.Equal(t, now.Add(time.Hour), *report.GetExpiresAt())

		m.excel.AssertExpectations(t)
		m.storage.AssertExpectations(t)
		m.repo.AssertExpectations(t)
		m.dashboard.AssertNotCalled(t, "Overview", mock.Anything)
	})

	t.Run("full report builds every view", func(t *testing.T) {
		ctx := context.Background()
		service, m := newReportService(now)

		filters := entities.ReportFilters{Mode: entities.ModeAll, Range: entities.RangeMonth, Condition: entities.ConditionAll}
		m.datasets.On("Current").Return(ds)
		m.repo.On("FindReport", mock.Anything, entities.ReportKindFull, filters, "v1").Return(nil, nil)
		m.dashboard.On("DatasetInfo", mock.Anything).Return(entities.DatasetInfo{})
		m.dashboard.On("Overview", mock.Anything).Return(&entities.DashboardView{}, nil)
		m.dashboard.On("TimeSeries", mock.Anything, entities.ModeAll, entities.RangeMonth).Return(&entities.TimeSeriesView{}, nil)
		m.dashboard.On("Routes", mock.Anything, entities.ModeAll).Return(&entities.RoutesView{}, nil)
		m.dashboard.On("Weather", mock.Anything, entities.ConditionAll).Return(&entities.WeatherView{}, nil)
		m.excel.On("GenerateRidershipReport", mock.Anything, mock.MatchedBy(func(c entities.ReportContent) bool {
			return c.Dashboard != nil && c.TimeSeries != nil && c.Routes != nil && c.Weather != nil
		})).Return([]byte("xlsx"), nil)
		m.storage.On("UploadReport", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.repo.On("SaveReport", mock.Anything, mock.Anything).Return(nil)

		_, err := service.GenerateReport(ctx, entities.ReportRequest{Kind: entities.ReportKindFull})
		require.NoError(t, err)
		m.dashboard.AssertExpectations(t)
	})

	t.Run("reuses live report", func(t *testing.T) {
		ctx := context.Background()
		service, m := newReportService(now)

		expires := now.Add(time.Minute)
		existing := &entities.ExcelReport{ID: "existing", ExpiresAt: &expires}
		m.datasets.On("Current").Return(ds)
		m.repo.On("FindReport", mock.Anything, entities.ReportKindRoutes, routesFilters, "v1").Return(existing, nil)

		report, err := service.GenerateReport(ctx, entities.ReportRequest{Kind: entities.ReportKindRoutes, Mode: "Train"})
		require.NoError(t, err)
		assert.Equal(t, "existing", report.GetID())
		m.excel.AssertNotCalled(t, "GenerateRidershipReport", mock.Anything, mock.Anything)
	})

	t.Run("unknown kind", func(t *testing.T) {
		service, _ := newReportService(now)

		_, err := service.GenerateReport(context.Background(), entities.ReportRequest{Kind: "yearly"})

		var verr entities.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "kind", verr.Field)
	})

	t.Run("invalid mode", func(t *testing.T) {
		service, _ := newReportService(now)

		_, err := service.GenerateReport(context.Background(), entities.ReportRequest{Kind: entities.ReportKindRoutes, Mode: "tram"})

		var verr entities.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "mode", verr.Field)
	})

	t.Run("dataset not ready", func(t *testing.T) {
		service, m := newReportService(now)
		m.datasets.On("Current").Return(nil)

		_, err := service.GenerateReport(context.Background(), entities.ReportRequest{Kind: entities.ReportKindWeather})
		assert.ErrorIs(t, err, ErrDatasetNotReady)
	})

	t.Run("excel failure", func(t *testing.T) {
		service, m := newReportService(now)

		m.datasets.On("Current").Return(ds)
		m.repo.On("FindReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		m.dashboard.On("DatasetInfo", mock.Anything).Return(entities.DatasetInfo{})
		m.dashboard.On("Weather", mock.Anything, entities.ConditionRain).Return(&entities.WeatherView{}, nil)
		m.excel.On("GenerateRidershipReport", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

		_, err := service.GenerateReport(context.Background(), entities.ReportRequest{Kind: entities.ReportKindWeather, Condition: "rain"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to generate excel")
		m.storage.AssertNotCalled(t, "UploadReport", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("upload failure", func(t *testing.T) {
		service, m := newReportService(now)

		m.datasets.On("Current").Return(ds)
		m.repo.On("FindReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		m.dashboard.On("DatasetInfo", mock.Anything).Return(entities.DatasetInfo{})
		m.dashboard.On("Overview", mock.Anything).Return(&entities.DashboardView{}, nil)
		m.excel.On("GenerateRidershipReport", mock.Anything, mock.Anything).Return([]byte("x"), nil)
		m.storage.On("UploadReport", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("minio down"))

		_, err := service.GenerateReport(context.Background(), entities.ReportRequest{Kind: entities.ReportKindDashboard})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upload report to storage")
		m.repo.AssertNotCalled(t, "SaveReport", mock.Anything, mock.Anything)
	})
}

func TestReportService_GenerateReportUsesOneSnapshot(t *testing.T) {
	now := time.Date(2025, time.March, 31, 9, 30, 0, 0, time.UTC)
	before := &entities.Dataset{Version: "v1", Routes: []entities.Route{{Name: "Central to Airport", Mode: "Train"}}}
	after := &entities.Dataset{Version: "v2", Routes: []entities.Route{{Name: "Harbour to Quay", Mode: "Ferry"}}}

	// The first read labels the report; a regeneration lands right after it.
	datasets := &testutils.MockDatasetProvider{}
	datasets.On("Current").Return(before).Once()
	datasets.On("Current").Return(after)

	viewCache := &testutils.MockCacheService{}
	viewCache.On("GetView", mock.Anything, mock.Anything).Return(nil, false)
	viewCache.On("CacheView", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	dashboard := NewDashboardService(datasets, viewCache, DefaultRouteLimits(), logger.Discard())

	repo := &testutils.MockReportRepository{}
	repo.On("FindReport", mock.Anything, entities.ReportKindRoutes, mock.Anything, "v1").Return(nil, nil)
	repo.On("SaveReport", mock.Anything, mock.MatchedBy(func(r entities.ExcelReportEntity) bool {
		return r.GetDatasetVersion() == "v1"
	})).Return(nil)

	excelGen := &testutils.MockExcelGenerator{}
	excelGen.On("GenerateRidershipReport", mock.Anything, mock.MatchedBy(func(c entities.ReportContent) bool {
		return c.Dataset.Version == "v1" &&
			c.Routes != nil &&
			len(c.Routes.ChartRoutes) == 1 &&
			c.Routes.ChartRoutes[0].Name == "Central to Airport"
	})).Return([]byte("xlsx"), nil)

	reportStorage := &testutils.MockReportStorage{}
	reportStorage.On("UploadReport", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := NewReportService(dashboard, datasets, repo, excelGen, reportStorage, time.Hour, "/api/v1", logger.Discard())
	service.now = func() time.Time { return now }

	report, err := service.GenerateReport(context.Background(), entities.ReportRequest{Kind: entities.ReportKindRoutes})
	require.NoError(t, err)

	assert.Equal(t, "v1", report.GetDatasetVersion())
	excelGen.AssertExpectations(t)
	repo.AssertExpectations(t)
	datasets.AssertNumberOfCalls(t, "Current", 1)
	viewCache.AssertCalled(t, "GetView", mock.Anything, ViewKey(ViewRoutes, "v1", "all"))
}

func TestReportService_GetReport(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		service, m := newReportService(now)
		m.repo.On("FindReportByID", mock.Anything, "r1").Return(&entities.ExcelReport{ID: "r1"}, nil)

		report, err := service.GetReport(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", report.GetID())
	})

	t.Run("missing", func(t *testing.T) {
		service, m := newReportService(now)
		m.repo.On("FindReportByID", mock.Anything, "r2").Return(nil, nil)

		_, err := service.GetReport(ctx, "r2")
		assert.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		service, m := newReportService(now)
		past := now.Add(-time.Second)
		m.repo.On("FindReportByID", mock.Anything, "r3").Return(&entities.ExcelReport{ID: "r3", ExpiresAt: &past}, nil)

		_, err := service.GetReport(ctx, "r3")
		assert.ErrorIs(t, err, ErrReportNotFound)
	})
}

func TestReportService_DownloadReport(t *testing.T) {
	ctx := context.Background()
	service, m := newReportService(time.Now())

	report := &entities.ExcelReport{ID: "r1", FileName: "ridership_full.xlsx"}
	m.repo.On("FindReportByID", mock.Anything, "r1").Return(report, nil)
	m.storage.On("DownloadReport", mock.Anything, report).Return(io.NopCloser(strings.NewReader("xlsx")), nil)

	reader, fileName, err := service.DownloadReport(ctx, "r1")
	require.NoError(t, err)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(body))
	assert.Equal(t, "ridership_full.xlsx", fileName)
}

func TestReportService_CleanupExpiredReports(t *testing.T) {
	now := time.Now()
	service, m := newReportService(now)

	first := &entities.ExcelReport{ID: "a"}
	second := &entities.ExcelReport{ID: "b"}
	m.repo.On("CleanupExpiredReports", mock.Anything, now).Return([]entities.ExcelReportEntity{first, second}, nil)
	m.storage.On("DeleteReport", mock.Anything, first).Return(nil)
	m.storage.On("DeleteReport", mock.Anything, second).Return(errors.New("gone"))

	assert.NoError(t, service.CleanupExpiredReports(context.Background()))
	m.storage.AssertExpectations(t)
}

func TestReportService_HealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		service, m := newReportService(time.Now())
		m.repo.On("HealthCheck", mock.Anything).Return(nil)
		m.storage.On("HealthCheck", mock.Anything).Return(nil)

		assert.NoError(t, service.HealthCheck(ctx))
	})

	t.Run("storage fails", func(t *testing.T) {
		service, m := newReportService(time.Now())
		m.repo.On("HealthCheck", mock.Anything).Return(nil)
		m.storage.On("HealthCheck", mock.Anything).Return(errors.New("down"))

		err := service.HealthCheck(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "report storage health check failed")
	})
}
