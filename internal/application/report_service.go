package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

var ErrReportNotFound = errors.New("report not found")

type ReportService struct {
	dashboard  ports.DashboardService
	datasets   ports.DatasetProvider
	reportRepo ports.ReportRepository
	excelGen   ports.ExcelGenerator
	storage    ports.ReportStorage
	validate   *validator.Validate
	ttl        time.Duration
	basePath   string
	logger     logger.Logger
	now        func() time.Time
}

func NewReportService(
	dashboard ports.DashboardService,
	datasets ports.DatasetProvider,
	reportRepo ports.ReportRepository,
	excelGen ports.ExcelGenerator,
	storage ports.ReportStorage,
	ttl time.Duration,
	basePath string,
	log logger.Logger,
) *ReportService {
	return &ReportService{
		dashboard:  dashboard,
		datasets:   datasets,
		reportRepo: reportRepo,
		excelGen:   excelGen,
		storage:    storage,
		validate:   validator.New(),
		ttl:        ttl,
		basePath:   basePath,
		logger:     logger.Component(log, "report_service"),
		now:        time.Now,
	}
}

// GenerateReport renders the requested views into a workbook and archives
// it. A live report for the same kind, filters and dataset version is
// returned instead of building a new one.
func (s *ReportService) GenerateReport(ctx context.Context, request entities.ReportRequest) (entities.ExcelReportEntity, error) {
	if err := s.validate.Struct(request); err != nil {
		return nil, entities.ValidationError{Field: "kind", Reason: "must be one of dashboard, time_series, routes, weather, full"}
	}
	filters, err := request.Parse()
	if err != nil {
		return nil, err
	}

	ds := s.datasets.Current()
	if ds == nil {
		return nil, ErrDatasetNotReady
	}

	existing, err := s.reportRepo.FindReport(ctx, request.Kind, filters, ds.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing report: %w", err)
	}
	if existing != nil && !existing.IsExpired(s.now()) {
		s.logger.Debugf("Reusing report %s", existing.GetID())
		return existing, nil
	}

	// Views are built from the snapshot the report is labelled with.
	content, err := s.buildContent(WithDataset(ctx, ds), request.Kind, filters)
	if err != nil {
		return nil, err
	}

	excelData, err := s.excelGen.GenerateRidershipReport(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate excel: %w", err)
	}

	return s.saveReport(ctx, request.Kind, filters, ds.Version, excelData)
}

func (s *ReportService) buildContent(ctx context.Context, kind entities.ReportKind, filters entities.ReportFilters) (entities.ReportContent, error) {
	content := entities.ReportContent{
		Kind:    kind,
		Dataset: s.dashboard.DatasetInfo(ctx),
		Filters: filters,
	}

	var err error
	if kind == entities.ReportKindDashboard || kind == entities.ReportKindFull {
		if content.Dashboard, err = s.dashboard.Overview(ctx); err != nil {
			return content, fmt.Errorf("failed to build dashboard view: %w", err)
		}
	}
	if kind == entities.ReportKindTimeSeries || kind == entities.ReportKindFull {
		if content.TimeSeries, err = s.dashboard.TimeSeries(ctx, filters.Mode, filters.Range); err != nil {
			return content, fmt.Errorf("failed to build time series view: %w", err)
		}
	}
	if kind == entities.ReportKindRoutes || kind == entities.ReportKindFull {
		if content.Routes, err = s.dashboard.Routes(ctx, filters.Mode); err != nil {
			return content, fmt.Errorf("failed to build routes view: %w", err)
		}
	}
	if kind == entities.ReportKindWeather || kind == entities.ReportKindFull {
		if content.Weather, err = s.dashboard.Weather(ctx, filters.Condition); err != nil {
			return content, fmt.Errorf("failed to build weather view: %w", err)
		}
	}
	return content, nil
}

func (s *ReportService) saveReport(ctx context.Context, kind entities.ReportKind, filters entities.ReportFilters, datasetVersion string, excelData []byte) (entities.ExcelReportEntity, error) {
	reportID := uuid.New().String()
	generatedAt := s.now()
	expiresAt := generatedAt.Add(s.ttl)
	fileName := fmt.Sprintf("ridership_%s_%s.xlsx", kind, generatedAt.Format("20060102_150405"))
	sum := sha256.Sum256(excelData)

	report := &entities.ExcelReport{
		ID:             reportID,
		Kind:           kind,
		Filters:        filters,
		DatasetVersion: datasetVersion,
		FileName:       fileName,
		FileSize:       int64(len(excelData)),
		StoragePath:    fmt.Sprintf("%s/%s/%s", kind, reportID, fileName),
		DownloadURL:    fmt.Sprintf("%s/reports/%s/download", s.basePath, reportID),
		Checksum:       hex.EncodeToString(sum[:]),
		GeneratedAt:    generatedAt,
		ExpiresAt:      &expiresAt,
	}

	if err := s.storage.UploadReport(ctx, report, bytes.NewReader(excelData)); err != nil {
		return nil, fmt.Errorf("failed to upload report to storage: %w", err)
	}

	if err := s.reportRepo.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"report_id": reportID,
		"kind":      kind,
		"size":      report.FileSize,
	}).Info("Report generated")

	return report, nil
}

func (s *ReportService) GetReport(ctx context.Context, reportID string) (entities.ExcelReportEntity, error) {
	report, err := s.reportRepo.FindReportByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil || report.IsExpired(s.now()) {
		return nil, ErrReportNotFound
	}
	return report, nil
}

func (s *ReportService) DownloadReport(ctx context.Context, reportID string) (io.ReadCloser, string, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, "", err
	}

	reader, err := s.storage.DownloadReport(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download report: %w", err)
	}

	return reader, report.GetFileName(), nil
}

// CleanupExpiredReports drops expired metadata and their stored workbooks.
func (s *ReportService) CleanupExpiredReports(ctx context.Context) error {
	expired, err := s.reportRepo.CleanupExpiredReports(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to clean up reports: %w", err)
	}

	for _, report := range expired {
		if err := s.storage.DeleteReport(ctx, report); err != nil {
			s.logger.WithError(err).Warnf("Failed to delete stored report %s", report.GetID())
		}
	}

	if len(expired) > 0 {
		s.logger.Infof("Removed %d expired reports", len(expired))
	}
	return nil
}

func (s *ReportService) HealthCheck(ctx context.Context) error {
	if err := s.reportRepo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("report repository health check failed: %w", err)
	}
	if err := s.storage.HealthCheck(ctx); err != nil {
		return fmt.Errorf("report storage health check failed: %w", err)
	}
	return nil
}
