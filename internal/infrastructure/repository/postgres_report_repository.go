package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const reportsSchema = `
	CREATE TABLE IF NOT EXISTS excel_reports (
		id              TEXT PRIMARY KEY,
		kind            TEXT NOT NULL,
		mode            TEXT NOT NULL,
		time_range      TEXT NOT NULL,
		condition       TEXT NOT NULL,
		dataset_version TEXT NOT NULL,
		file_name       TEXT NOT NULL,
		file_size       BIGINT NOT NULL,
		storage_path    TEXT NOT NULL,
		download_url    TEXT NOT NULL,
		checksum        TEXT NOT NULL,
		generated_at    TIMESTAMPTZ NOT NULL,
		expires_at      TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS excel_reports_lookup_idx
		ON excel_reports (kind, mode, time_range, condition, dataset_version, generated_at DESC);
	CREATE INDEX IF NOT EXISTS excel_reports_expires_idx ON excel_reports (expires_at);
`

const reportColumns = `id, kind, mode, time_range, condition, dataset_version,
	file_name, file_size, storage_path, download_url,
	checksum, generated_at, expires_at`

// pgxQuerier is the part of *pgxpool.Pool the repository uses.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type PostgresReportRepository struct {
	db     pgxQuerier
	close  func()
	logger logger.Logger
}

func NewPostgresReportRepository(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) (*PostgresReportRepository, error) {
	log = logger.Component(log, "postgres_report_repository")

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, reportsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to prepare reports schema: %w", err)
	}

	log.Infof("Connected to postgres at %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return &PostgresReportRepository{
		db:     pool,
		close:  pool.Close,
		logger: log,
	}, nil
}

func (r *PostgresReportRepository) SaveReport(ctx context.Context, report entities.ExcelReportEntity) error {
	query := `
		INSERT INTO excel_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			download_url = EXCLUDED.download_url,
			expires_at = EXCLUDED.expires_at
	`

	filters := report.GetFilters()
	_, err := r.db.Exec(ctx, query,
		report.GetID(),
		string(report.GetKind()),
		string(filters.Mode),
		string(filters.Range),
		string(filters.Condition),
		report.GetDatasetVersion(),
		report.GetFileName(),
		report.GetFileSize(),
		report.GetStoragePath(),
		report.GetDownloadURL(),
		report.GetChecksum(),
		report.GetGeneratedAt(),
		report.GetExpiresAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *PostgresReportRepository) FindReportByID(ctx context.Context, reportID string) (entities.ExcelReportEntity, error) {
	query := `SELECT ` + reportColumns + ` FROM excel_reports WHERE id = $1`

	report, err := scanReport(r.db.QueryRow(ctx, query, reportID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find report by ID: %w", err)
	}
	return report, nil
}

func (r *PostgresReportRepository) FindReport(ctx context.Context, kind entities.ReportKind, filters entities.ReportFilters, datasetVersion string) (entities.ExcelReportEntity, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM excel_reports
		WHERE kind = $1 AND mode = $2 AND time_range = $3
			AND condition = $4 AND dataset_version = $5
		ORDER BY generated_at DESC
		LIMIT 1
	`

	report, err := scanReport(r.db.QueryRow(ctx, query,
		string(kind), string(filters.Mode), string(filters.Range), string(filters.Condition), datasetVersion))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	return report, nil
}

func (r *PostgresReportRepository) CleanupExpiredReports(ctx context.Context, now time.Time) ([]entities.ExcelReportEntity, error) {
	query := `
		DELETE FROM excel_reports
		WHERE expires_at IS NOT NULL AND expires_at < $1
		RETURNING ` + reportColumns

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired reports: %w", err)
	}
	defer rows.Close()

	var expired []entities.ExcelReportEntity
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return expired, fmt.Errorf("failed to scan expired report: %w", err)
		}
		expired = append(expired, report)
	}
	if err := rows.Err(); err != nil {
		return expired, fmt.Errorf("failed to read expired reports: %w", err)
	}

	if len(expired) > 0 {
		r.logger.Debugf("Removed %d expired report records", len(expired))
	}
	return expired, nil
}

func (r *PostgresReportRepository) HealthCheck(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (r *PostgresReportRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}

func scanReport(row pgx.Row) (*entities.ExcelReport, error) {
	var report entities.ExcelReport
	var kind, mode, timeRange, condition string

	err := row.Scan(
		&report.ID,
		&kind,
		&mode,
		&timeRange,
		&condition,
		&report.DatasetVersion,
		&report.FileName,
		&report.FileSize,
		&report.StoragePath,
		&report.DownloadURL,
		&report.Checksum,
		&report.GeneratedAt,
		&report.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	report.Kind = entities.ReportKind(kind)
	report.Filters = entities.ReportFilters{
		Mode:      entities.ModeFilter(mode),
		Range:     entities.TimeRange(timeRange),
		Condition: entities.WeatherCondition(condition),
	}
	return &report, nil
}
