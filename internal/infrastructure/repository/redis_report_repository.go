package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const (
	reportKeyPrefix   = "report:"
	reportIndexPrefix = "report_index:"
	reportExpirySet   = "report_expiry"
)

// RedisReportRepository keeps report metadata as JSON documents. A lookup
// key per kind, filters and dataset version points at the newest report and
// a sorted set ordered by expiry drives cleanup.
type RedisReportRepository struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisReportRepository(client *redis.Client, log logger.Logger) *RedisReportRepository {
	return &RedisReportRepository{
		client: client,
		logger: logger.Component(log, "redis_report_repository"),
	}
}

func (r *RedisReportRepository) SaveReport(ctx context.Context, report entities.ExcelReportEntity) error {
	record := toReport(report)
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, reportKey(record.ID), data, 0)
	pipe.Set(ctx, indexKey(record.Kind, record.Filters, record.DatasetVersion), record.ID, 0)
	if record.ExpiresAt != nil {
		pipe.ZAdd(ctx, reportExpirySet, &redis.Z{
			Score:  float64(record.ExpiresAt.Unix()),
			Member: record.ID,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *RedisReportRepository) FindReportByID(ctx context.Context, reportID string) (entities.ExcelReportEntity, error) {
	report, err := r.load(ctx, reportID)
	if err != nil || report == nil {
		return nil, err
	}
	return report, nil
}

func (r *RedisReportRepository) FindReport(ctx context.Context, kind entities.ReportKind, filters entities.ReportFilters, datasetVersion string) (entities.ExcelReportEntity, error) {
	reportID, err := r.client.Get(ctx, indexKey(kind, filters, datasetVersion)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	return r.FindReportByID(ctx, reportID)
}

func (r *RedisReportRepository) CleanupExpiredReports(ctx context.Context, now time.Time) ([]entities.ExcelReportEntity, error) {
	ids, err := r.client.ZRangeByScore(ctx, reportExpirySet, &redis.ZRangeBy{
		Min: "-inf",
		// Exclusive bound so a report is kept until now is after its expiry.
		Max: "(" + strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list expired reports: %w", err)
	}

	var expired []entities.ExcelReportEntity
	for _, id := range ids {
		report, err := r.load(ctx, id)
		if err != nil {
			return expired, err
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, reportKey(id))
		pipe.ZRem(ctx, reportExpirySet, id)
		if report != nil {
			index := indexKey(report.Kind, report.Filters, report.DatasetVersion)
			// Only drop the index if it still points at this report.
			if current, _ := r.client.Get(ctx, index).Result(); current == id {
				pipe.Del(ctx, index)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return expired, fmt.Errorf("failed to delete report %s: %w", id, err)
		}

		if report != nil {
			expired = append(expired, report)
		}
	}

	if len(expired) > 0 {
		r.logger.Debugf("Removed %d expired report records", len(expired))
	}
	return expired, nil
}

func (r *RedisReportRepository) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisReportRepository) load(ctx context.Context, reportID string) (*entities.ExcelReport, error) {
	data, err := r.client.Get(ctx, reportKey(reportID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report entities.ExcelReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", reportID, err)
	}
	return &report, nil
}

func reportKey(id string) string {
	return reportKeyPrefix + id
}

func indexKey(kind entities.ReportKind, filters entities.ReportFilters, datasetVersion string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s", reportIndexPrefix, kind, filters.Mode, filters.Range, filters.Condition, datasetVersion)
}
