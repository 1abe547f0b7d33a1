package application

import (
	"context"
	"encoding/json"

	"github.com/k-shtanenko/ridership-api/internal/analytics"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const (
	ViewDashboard  = "dashboard"
	ViewTimeSeries = "time_series"
	ViewRoutes     = "routes"
	ViewWeather    = "weather"
	ViewGeospatial = "geospatial"
)

type RouteLimits struct {
	Chart     int
	Detail    int
	Dashboard int
}

func DefaultRouteLimits() RouteLimits {
	return RouteLimits{Chart: 8, Detail: 5, Dashboard: 5}
}

type DashboardService struct {
	datasets ports.DatasetProvider
	cache    ports.CacheService
	limits   RouteLimits
	logger   logger.Logger
}

func NewDashboardService(datasets ports.DatasetProvider, cache ports.CacheService, limits RouteLimits, log logger.Logger) *DashboardService {
	return &DashboardService{
		datasets: datasets,
		cache:    cache,
		limits:   limits,
		logger:   logger.Component(log, "dashboard_service"),
	}
}

func (s *DashboardService) Overview(ctx context.Context) (*entities.DashboardView, error) {
	return cachedView(ctx, s, ViewDashboard, nil, func(ds *entities.Dataset) *entities.DashboardView {
		return &entities.DashboardView{
			Metrics:      ds.Metrics,
			DailyUsage:   analytics.DailyUsageRows(ds.DailyUsage, entities.ModeAll),
			DailySeries:  analytics.ModeSeries(),
			HourlyUsage:  ds.HourlyUsage,
			HourlySeries: analytics.HourlySeries(),
			TopRoutes:    analytics.TopRoutes(ds.Routes, s.limits.Dashboard),
			RouteSeries:  analytics.DashboardRouteSeries(),
			ModeShare:    ds.ModeShare,
			ShareSeries:  analytics.ModeShareSeries(),
		}
	})
}

func (s *DashboardService) TimeSeries(ctx context.Context, mode entities.ModeFilter, timeRange entities.TimeRange) (*entities.TimeSeriesView, error) {
	params := []string{string(mode), string(timeRange)}
	return cachedView(ctx, s, ViewTimeSeries, params, func(ds *entities.Dataset) *entities.TimeSeriesView {
		window := analytics.TrailingWindow(ds.DailyUsage, timeRange)
		return &entities.TimeSeriesView{
			Mode:         mode,
			Range:        timeRange,
			DailyUsage:   analytics.DailyUsageRows(window, mode),
			DailySeries:  analytics.DailySeries(mode),
			HourlyUsage:  ds.HourlyUsage,
			HourlySeries: analytics.HourlySeries(),
		}
	})
}

func (s *DashboardService) Routes(ctx context.Context, mode entities.ModeFilter) (*entities.RoutesView, error) {
	return cachedView(ctx, s, ViewRoutes, []string{string(mode)}, func(ds *entities.Dataset) *entities.RoutesView {
		filtered := analytics.FilterRoutes(ds.Routes, mode)
		return &entities.RoutesView{
			Mode:           mode,
			ChartRoutes:    analytics.TopRoutes(filtered, s.limits.Chart),
			DetailRoutes:   analytics.TopRoutes(filtered, s.limits.Detail),
			RouteSeries:    analytics.RouteSeries(),
			ModeComparison: analytics.WithUtilisationLevels(ds.ModeComparison),
		}
	})
}

// Weather filters the records by condition for the chart; buckets, weekday
// comparison and summary always use every record.
func (s *DashboardService) Weather(ctx context.Context, condition entities.WeatherCondition) (*entities.WeatherView, error) {
	return cachedView(ctx, s, ViewWeather, []string{string(condition)}, func(ds *entities.Dataset) *entities.WeatherView {
		return &entities.WeatherView{
			Condition:          condition,
			Records:            analytics.FilterWeather(ds.WeatherImpact, condition),
			RecordSeries:       analytics.WeatherSeries(),
			TemperatureBuckets: analytics.TemperatureBuckets(ds.WeatherImpact),
			BucketSeries:       analytics.TemperatureSeries(),
			Weekdays:           analytics.WeekdayComparison(ds.WeatherImpact),
			WeekdaySeries:      analytics.WeekdaySeries(),
			Summary:            analytics.SummarizeWeather(ds.WeatherImpact),
		}
	})
}

func (s *DashboardService) Geospatial(ctx context.Context, mode entities.ModeFilter, period entities.DayPeriod) (*entities.GeospatialView, error) {
	params := []string{string(mode), string(period)}
	return cachedView(ctx, s, ViewGeospatial, params, func(ds *entities.Dataset) *entities.GeospatialView {
		return &entities.GeospatialView{
			Mode:                mode,
			Period:              analytics.SummarizePeriod(ds.HourlyUsage, period),
			Routes:              analytics.FilterRoutes(ds.Routes, mode),
			OriginStations:      ds.OriginStations,
			DestinationStations: ds.DestinationStations,
		}
	})
}

func (s *DashboardService) DatasetInfo(ctx context.Context) entities.DatasetInfo {
	ds := snapshot(ctx, s.datasets)
	if ds == nil {
		return entities.DatasetInfo{}
	}
	return entities.DatasetInfo{
		Version:       ds.Version,
		Seed:          ds.Seed,
		GeneratedAt:   ds.GeneratedAt,
		StartDate:     ds.StartDate,
		Days:          len(ds.DailyUsage),
		HourlyRecords: len(ds.HourlyUsage),
		Routes:        len(ds.Routes),
	}
}

// cachedView serves a view from the cache when the current dataset version
// already has it, otherwise computes and stores it.
func cachedView[T any](ctx context.Context, s *DashboardService, view string, params []string, compute func(*entities.Dataset) *T) (*T, error) {
	ds := snapshot(ctx, s.datasets)
	if ds == nil {
		return nil, ErrDatasetNotReady
	}

	key := ViewKey(view, ds.Version, params...)
	if data, ok := s.cache.GetView(ctx, key); ok {
		var cached T
		err := json.Unmarshal(data, &cached)
		if err == nil {
			return &cached, nil
		}
		s.logger.WithError(err).Warnf("Discarding unreadable cached view %s", key)
	}

	result := compute(ds)

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.WithError(err).Warnf("Failed to encode view %s for caching", view)
		return result, nil
	}
	if err := s.cache.CacheView(ctx, view, key, data); err != nil {
		s.logger.WithError(err).Warnf("Failed to cache view %s", view)
	}

	return result, nil
}
