package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

func newReport(id string, generatedAt time.Time, ttl time.Duration) *entities.ExcelReport {
	expiresAt := generatedAt.Add(ttl)
	return &entities.ExcelReport{
		ID:             id,
		Kind:           entities.ReportKindRoutes,
		Filters:        entities.ReportFilters{Mode: entities.ModeBus, Range: entities.RangeMonth, Condition: entities.ConditionAll},
		DatasetVersion: "v1",
		FileName:       id + ".xlsx",
		GeneratedAt:    generatedAt,
		ExpiresAt:      &expiresAt,
	}
}

func TestMemoryReportRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReportRepository(logger.Discard())
	now := time.Now()

	t.Run("unknown id", func(t *testing.T) {
		report, err := repo.FindReportByID(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, report)
	})

	original := newReport("r1", now, time.Hour)
	require.NoError(t, repo.SaveReport(ctx, original))

	t.Run("stored copy is independent", func(t *testing.T) {
		original.FileName = "changed.xlsx"
		*original.ExpiresAt = now

		report, err := repo.FindReportByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1.xlsx", report.GetFileName())
		assert.Equal(t, now.Add(time.Hour), *report.GetExpiresAt())
	})

	t.Run("find by key returns newest", func(t *testing.T) {
		require.NoError(t, repo.SaveReport(ctx, newReport("r2", now.Add(time.Minute), time.Hour)))

		report, err := repo.FindReport(ctx, entities.ReportKindRoutes, entities.ReportFilters{
			Mode: entities.ModeBus, Range: entities.RangeMonth, Condition: entities.ConditionAll,
		}, "v1")
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, "r2", report.GetID())
	})

	t.Run("different version misses", func(t *testing.T) {
		report, err := repo.FindReport(ctx, entities.ReportKindRoutes, entities.ReportFilters{
			Mode: entities.ModeBus, Range: entities.RangeMonth, Condition: entities.ConditionAll,
		}, "v2")
		require.NoError(t, err)
		assert.Nil(t, report)
	})

	t.Run("different filters miss", func(t *testing.T) {
		report, err := repo.FindReport(ctx, entities.ReportKindRoutes, entities.ReportFilters{
			Mode: entities.ModeTrain, Range: entities.RangeMonth, Condition: entities.ConditionAll,
		}, "v1")
		require.NoError(t, err)
		assert.Nil(t, report)
	})
}

func TestMemoryReportRepository_CleanupExpiredReports(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReportRepository(logger.Discard())
	now := time.Now()

	require.NoError(t, repo.SaveReport(ctx, newReport("old", now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, repo.SaveReport(ctx, newReport("older", now.Add(-3*time.Hour), time.Hour)))
	require.NoError(t, repo.SaveReport(ctx, newReport("fresh", now, time.Hour)))
	require.NoError(t, repo.SaveReport(ctx, &entities.ExcelReport{ID: "forever", GeneratedAt: now}))

	expired, err := repo.CleanupExpiredReports(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "older", expired[0].GetID())
	assert.Equal(t, "old", expired[1].GetID())

	for _, id := range []string{"fresh", "forever"} {
		report, err := repo.FindReportByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, report, id)
	}

	again, err := repo.CleanupExpiredReports(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again)

	assert.NoError(t, repo.HealthCheck(ctx))
}

func TestIndexKey(t *testing.T) {
	key := indexKey(entities.ReportKindWeather, entities.ReportFilters{
		Mode: entities.ModeAll, Range: entities.RangeWeek, Condition: entities.ConditionRain,
	}, "v9")
	assert.Equal(t, "report_index:weather:all:week:rain:v9", key)
	assert.Equal(t, "report:abc", reportKey("abc"))
}
