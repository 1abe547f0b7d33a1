package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/k-shtanenko/ridership-api/internal/application"
	"github.com/k-shtanenko/ridership-api/internal/catalog"
	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/generator"
	"github.com/k-shtanenko/ridership-api/internal/infrastructure/api"
	"github.com/k-shtanenko/ridership-api/internal/infrastructure/cache"
	"github.com/k-shtanenko/ridership-api/internal/infrastructure/events"
	"github.com/k-shtanenko/ridership-api/internal/infrastructure/excel"
	"github.com/k-shtanenko/ridership-api/internal/infrastructure/repository"
	"github.com/k-shtanenko/ridership-api/internal/infrastructure/scheduler"
	"github.com/k-shtanenko/ridership-api/internal/infrastructure/storage"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const (
	jobDatasetRefresh = "dataset_refresh"
	jobCacheCleanup   = "cache_cleanup"
	jobReportCleanup  = "report_cleanup"
	jobLimiterCleanup = "rate_limiter_cleanup"
)

type App struct {
	config        *config.Config
	logger        logger.Logger
	datasets      *application.DatasetStore
	cache         ports.Cache
	redisCache    *cache.RedisCache
	cacheService  *application.CacheService
	reportRepo    ports.ReportRepository
	reportStorage ports.ReportStorage
	dashboard     *application.DashboardService
	reportService *application.ReportService
	stream        *api.StreamHub
	middleware    *api.Middleware
	publisher     ports.EventPublisher
	scheduler     *scheduler.CronScheduler
	apiServer     *api.APIServer

	ctx    context.Context
	cancel context.CancelFunc
}

func Bootstrap() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("service", cfg.App.Name)
	appLogger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	app, err := New(cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize components: %v", err)
	}

	if err := app.start(); err != nil {
		app.shutdownComponents(context.Background())
		appLogger.Fatalf("Failed to start application: %v", err)
	}

	app.waitForShutdown()
}

func New(cfg *config.Config, log logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		config: cfg,
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initComponents(); err != nil {
		cancel()
		app.shutdownComponents(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) initComponents() error {
	a.logger.Info("Initializing components...")

	cat, err := catalog.Load(a.config.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	gen := generator.New(cat, generator.Options{
		StartDate: a.config.DatasetStart(),
		Days:      a.config.Dataset.Days,
	}, a.logger)
	a.datasets = application.NewDatasetStore(gen, a.logger)

	if err := a.initCache(); err != nil {
		return err
	}
	if err := a.initReportRepository(); err != nil {
		return err
	}
	if err := a.initStorage(); err != nil {
		return err
	}
	if err := a.initEvents(); err != nil {
		return err
	}

	a.logger.Info("Initializing application services...")
	a.cacheService = application.NewCacheService(a.cache, a.config.Cache.ViewTTL, a.logger)
	a.dashboard = application.NewDashboardService(a.datasets, a.cacheService, application.RouteLimits{
		Chart:     a.config.API.RouteChartLimit,
		Detail:    a.config.API.RouteDetailLimit,
		Dashboard: a.config.API.DashboardRouteLimit,
	}, a.logger)
	a.reportService = application.NewReportService(
		a.dashboard,
		a.datasets,
		a.reportRepo,
		excel.NewExcelGenerator(a.logger),
		a.reportStorage,
		a.config.Reports.TTL,
		a.config.API.BasePath,
		a.logger,
	)

	a.stream = api.NewStreamHub(a.config.API.CorsAllowedOrigins, a.logger)
	a.datasets.Subscribe(a.onDatasetRefreshed)
	a.datasets.Subscribe(a.stream.OnDatasetRefreshed)
	if a.publisher != nil {
		a.datasets.Subscribe(a.publishDatasetEvent)
	}

	a.scheduler = scheduler.NewCronScheduler(a.config.Scheduler.Timeout, a.logger)

	a.logger.Info("Initializing API server...")
	handler := api.NewAPIHandler(a.dashboard, a.reportService, a.cacheService, a.datasets, a.scheduler, a.logger)
	a.middleware = api.NewMiddleware(a.config.API, a.logger)
	a.apiServer = api.NewAPIServer(handler, a.stream, a.middleware, a.config, a.logger)

	a.logger.Info("All components initialized successfully")
	return nil
}

func (a *App) initCache() error {
	switch a.config.Cache.Driver {
	case "redis":
		a.logger.Info("Initializing Redis cache...")
		redisCache, err := cache.NewRedisCache(a.config.Redis, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create cache: %w", err)
		}
		a.cache = redisCache
		a.redisCache = redisCache
	default:
		a.logger.Info("Initializing in-memory cache...")
		a.cache = cache.NewMemoryCache(a.logger)
	}
	return nil
}

func (a *App) initReportRepository() error {
	switch a.config.ReportRepository() {
	case "postgres":
		a.logger.Info("Initializing Postgres report repository...")
		repo, err := repository.NewPostgresReportRepository(a.ctx, a.config.Postgres, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create report repository: %w", err)
		}
		a.reportRepo = repo
	case "redis":
		if a.redisCache == nil {
			return fmt.Errorf("redis report repository requires the redis cache driver")
		}
		a.logger.Info("Initializing Redis report repository...")
		a.reportRepo = repository.NewRedisReportRepository(a.redisCache.Client(), a.logger)
	default:
		a.logger.Info("Initializing in-memory report repository...")
		a.reportRepo = repository.NewMemoryReportRepository(a.logger)
	}
	return nil
}

func (a *App) initEvents() error {
	if a.config.Events.Driver != "kafka" {
		return nil
	}

	a.logger.Info("Initializing Kafka event publisher...")
	publisher, err := events.NewKafkaPublisher(a.config.Kafka, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	a.publisher = publisher
	return nil
}

func (a *App) initStorage() error {
	var objects ports.Storage
	switch a.config.Storage.Driver {
	case "minio":
		a.logger.Info("Initializing Minio storage...")
		minioStorage, err := storage.NewMinioStorage(a.config.Minio, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		objects = minioStorage
	default:
		a.logger.Info("Initializing in-memory storage...")
		objects = storage.NewMemoryStorage(a.logger)
	}

	a.reportStorage = storage.NewReportStorage(objects, a.config.Minio.Bucket, a.logger)
	return nil
}

func (a *App) start() error {
	if err := a.prepare(); err != nil {
		return err
	}

	a.logger.Info("Starting API server...")
	if err := a.apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	a.logger.Info("Application started successfully")
	return nil
}

// prepare runs everything start does except opening the listener.
func (a *App) prepare() error {
	checks := []Check{
		{Name: "cache", Check: a.cache.HealthCheck},
		{Name: "report_repository", Check: a.reportRepo.HealthCheck},
		{Name: "report_storage", Check: a.reportStorage.HealthCheck},
	}
	if a.publisher != nil {
		checks = append(checks, Check{Name: "event_publisher", Check: a.publisher.HealthCheck})
	}

	checker := NewHealthChecker(
		a.config.HealthCheck.Timeout,
		a.config.HealthCheck.RetryInterval,
		a.config.HealthCheck.MaxRetries,
		a.logger,
		checks...,
	)
	if err := checker.CheckAll(a.ctx); err != nil {
		return err
	}

	if _, err := a.datasets.Regenerate(a.ctx, a.config.Dataset.Seed); err != nil {
		return fmt.Errorf("failed to generate initial dataset: %w", err)
	}

	a.logger.Info("Setting up scheduler...")
	if err := a.setupScheduler(a.ctx); err != nil {
		return fmt.Errorf("failed to setup scheduler: %w", err)
	}
	return nil
}

func (a *App) setupScheduler(ctx context.Context) error {
	if interval := a.config.Dataset.RefreshInterval; interval > 0 {
		// Scheduled refreshes always draw a fresh seed.
		if err := a.scheduler.Schedule(ctx, jobDatasetRefresh, interval, func(ctx context.Context) error {
			_, err := a.datasets.Regenerate(ctx, 0)
			return err
		}); err != nil {
			return fmt.Errorf("failed to schedule dataset refresh: %w", err)
		}
	}

	if err := a.scheduler.Schedule(ctx, jobCacheCleanup, a.config.Scheduler.CleanupInterval, a.cacheService.CleanupExpiredCache); err != nil {
		return fmt.Errorf("failed to schedule cache cleanup: %w", err)
	}

	if err := a.scheduler.Schedule(ctx, jobReportCleanup, a.config.Scheduler.CleanupInterval, a.reportService.CleanupExpiredReports); err != nil {
		return fmt.Errorf("failed to schedule report cleanup: %w", err)
	}

	if err := a.scheduler.Schedule(ctx, jobLimiterCleanup, a.config.Scheduler.CleanupInterval, func(context.Context) error {
		a.middleware.SweepLimiters(a.config.API.RateLimitWindow)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to schedule rate limiter cleanup: %w", err)
	}

	return nil
}

// onDatasetRefreshed drops views computed from the previous snapshot.
func (a *App) onDatasetRefreshed(ctx context.Context, previous, current *entities.Dataset) {
	if previous == nil {
		return
	}
	if err := a.cacheService.InvalidateViews(ctx); err != nil {
		a.logger.Warnf("Failed to invalidate cached views: %v", err)
	}
}

// publishDatasetEvent forwards refreshes to the event bus. Failures are
// logged and never fail the refresh.
func (a *App) publishDatasetEvent(ctx context.Context, previous, current *entities.Dataset) {
	if err := a.publisher.PublishDatasetEvent(ctx, entities.NewDatasetRefreshedEvent(previous, current)); err != nil {
		a.logger.Warnf("Failed to publish dataset event: %v", err)
	}
}

func (a *App) waitForShutdown() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		a.logger.Infof("Received signal: %v. Shutting down...", sig)
	case err := <-a.apiServer.Errors():
		a.logger.Errorf("API server failed: %v. Shutting down...", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.config.App.ShutdownTimeout)
	defer cancel()

	a.shutdownComponents(ctx)

	a.logger.Info("Application shutdown completed")
}

func (a *App) shutdownComponents(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if a.apiServer != nil {
		a.logger.Info("Stopping API server...")
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.Errorf("Failed to stop API server: %v", err)
		}
	}

	if a.scheduler != nil {
		a.logger.Info("Stopping scheduler...")
		a.scheduler.Stop()
	}

	if a.publisher != nil {
		a.logger.Info("Closing event publisher...")
		if err := a.publisher.Close(); err != nil {
			a.logger.Errorf("Failed to close event publisher: %v", err)
		}
	}

	if closer, ok := a.reportRepo.(interface{ Close() error }); ok {
		a.logger.Info("Closing report repository...")
		if err := closer.Close(); err != nil {
			a.logger.Errorf("Failed to close report repository: %v", err)
		}
	}

	if a.cache != nil {
		a.logger.Info("Closing cache...")
		if err := a.cache.Close(); err != nil {
			a.logger.Errorf("Failed to close cache: %v", err)
		}
	}
}
