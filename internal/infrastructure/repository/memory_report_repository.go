package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[string]entities.ExcelReport
	logger  logger.Logger
}

func NewMemoryReportRepository(log logger.Logger) *MemoryReportRepository {
	return &MemoryReportRepository{
		reports: make(map[string]entities.ExcelReport),
		logger:  logger.Component(log, "memory_report_repository"),
	}
}

func (r *MemoryReportRepository) SaveReport(_ context.Context, report entities.ExcelReportEntity) error {
	r.mu.Lock()
	r.reports[report.GetID()] = toReport(report)
	r.mu.Unlock()
	return nil
}

func (r *MemoryReportRepository) FindReportByID(_ context.Context, reportID string) (entities.ExcelReportEntity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[reportID]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

// FindReport returns the most recently generated report matching the key,
// expired or not.
func (r *MemoryReportRepository) FindReport(_ context.Context, kind entities.ReportKind, filters entities.ReportFilters, datasetVersion string) (entities.ExcelReportEntity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *entities.ExcelReport
	for _, report := range r.reports {
		if report.Kind != kind || report.Filters != filters || report.DatasetVersion != datasetVersion {
			continue
		}
		if latest == nil || report.GeneratedAt.After(latest.GeneratedAt) {
			found := report
			latest = &found
		}
	}

	if latest == nil {
		return nil, nil
	}
	return latest, nil
}

func (r *MemoryReportRepository) CleanupExpiredReports(_ context.Context, now time.Time) ([]entities.ExcelReportEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []entities.ExcelReportEntity
	for id, report := range r.reports {
		if !report.IsExpired(now) {
			continue
		}
		removed := report
		expired = append(expired, &removed)
		delete(r.reports, id)
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].GetGeneratedAt().Before(expired[j].GetGeneratedAt())
	})

	if len(expired) > 0 {
		r.logger.Debugf("Removed %d expired report records", len(expired))
	}
	return expired, nil
}

func (r *MemoryReportRepository) HealthCheck(_ context.Context) error {
	return nil
}

func toReport(report entities.ExcelReportEntity) entities.ExcelReport {
	out := entities.ExcelReport{
		ID:             report.GetID(),
		Kind:           report.GetKind(),
		Filters:        report.GetFilters(),
		DatasetVersion: report.GetDatasetVersion(),
		FileName:       report.GetFileName(),
		FileSize:       report.GetFileSize(),
		StoragePath:    report.GetStoragePath(),
		DownloadURL:    report.GetDownloadURL(),
		Checksum:       report.GetChecksum(),
		GeneratedAt:    report.GetGeneratedAt(),
	}
	if expiresAt := report.GetExpiresAt(); expiresAt != nil {
		t := *expiresAt
		out.ExpiresAt = &t
	}
	return out
}
