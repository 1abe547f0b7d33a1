package ports

import (
	"context"
	"time"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

type ReportRepository interface {
	SaveReport(ctx context.Context, report entities.ExcelReportEntity) error
	FindReportByID(ctx context.Context, reportID string) (entities.ExcelReportEntity, error)
	FindReport(ctx context.Context, kind entities.ReportKind, filters entities.ReportFilters, datasetVersion string) (entities.ExcelReportEntity, error)
	// CleanupExpiredReports removes reports expired at now and returns them so
	// their stored files can be deleted too.
	CleanupExpiredReports(ctx context.Context, now time.Time) ([]entities.ExcelReportEntity, error)
	HealthCheck(ctx context.Context) error
}
