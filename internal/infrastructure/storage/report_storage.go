package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

// ReportStorage stores workbooks in a single bucket of any object storage.
type ReportStorage struct {
	storage ports.Storage
	bucket  string
	logger  logger.Logger
}

func NewReportStorage(storage ports.Storage, bucket string, log logger.Logger) *ReportStorage {
	return &ReportStorage{
		storage: storage,
		bucket:  bucket,
		logger:  logger.Component(log, "report_storage"),
	}
}

func (r *ReportStorage) UploadReport(ctx context.Context, report entities.ExcelReportEntity, data io.Reader) error {
	key := storageKey(report)

	if err := r.storage.Upload(ctx, r.bucket, key, data, report.GetFileSize(), entities.ExcelContentType); err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	r.logger.Infof("Uploaded report %s, key: %s", report.GetID(), key)
	return nil
}

func (r *ReportStorage) DownloadReport(ctx context.Context, report entities.ExcelReportEntity) (io.ReadCloser, error) {
	return r.storage.Download(ctx, r.bucket, storageKey(report))
}

func (r *ReportStorage) DeleteReport(ctx context.Context, report entities.ExcelReportEntity) error {
	return r.storage.Delete(ctx, r.bucket, storageKey(report))
}

func (r *ReportStorage) HealthCheck(ctx context.Context) error {
	return r.storage.HealthCheck(ctx)
}

func storageKey(report entities.ExcelReportEntity) string {
	if path := report.GetStoragePath(); path != "" {
		return path
	}
	return fmt.Sprintf("%s/%s/%s", report.GetKind(), report.GetID(), report.GetFileName())
}
