package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	configContent := `
app:
  name: "ridership-api-test"
  env: "test"
  log_level: "debug"
  port: 9090

dataset:
  seed: 42
  start_date: "2025-03-01"
  days: 30
  refresh_interval: "15m"

cache:
  driver: "memory"
  view_ttl: "2m"

storage:
  driver: "memory"

scheduler:
  cleanup_interval: "30m"
  timeout: "10s"

reports:
  ttl: "6h"

api:
  base_path: "/api/v1"
  cors_allowed_origins:
    - "http://localhost:3000"
  rate_limit: 50
  rate_limit_window: "30s"
  route_chart_limit: 8
  route_detail_limit: 5
  dashboard_route_limit: 5

healthcheck:
  timeout: "1s"
  retry_interval: "500ms"
  max_retries: 2
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	require.NoError(t, os.Chdir(tmpDir))

	t.Run("load from file", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ridership-api-test", cfg.App.Name)
		assert.Equal(t, "test", cfg.App.Env)
		assert.Equal(t, "debug", cfg.App.LogLevel)
		assert.Equal(t, 9090, cfg.App.Port)

		assert.Equal(t, int64(42), cfg.Dataset.Seed)
		assert.Equal(t, 30, cfg.Dataset.Days)
		assert.Equal(t, 15*time.Minute, cfg.Dataset.RefreshInterval)
		assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), cfg.DatasetStart())

		assert.Equal(t, "memory", cfg.Cache.Driver)
		assert.Equal(t, 2*time.Minute, cfg.Cache.ViewTTL)
		assert.Equal(t, "memory", cfg.Storage.Driver)

		assert.Equal(t, 30*time.Minute, cfg.Scheduler.CleanupInterval)
		assert.Equal(t, 10*time.Second, cfg.Scheduler.Timeout)
		assert.Equal(t, 6*time.Hour, cfg.Reports.TTL)

		assert.Equal(t, "/api/v1", cfg.API.BasePath)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.CorsAllowedOrigins)
		assert.Equal(t, 50, cfg.API.RateLimit)
		assert.Equal(t, 30*time.Second, cfg.API.RateLimitWindow)
		assert.Equal(t, 8, cfg.API.RouteChartLimit)
		assert.Equal(t, 5, cfg.API.RouteDetailLimit)
		assert.Equal(t, 5, cfg.API.DashboardRouteLimit)

		assert.Equal(t, time.Second, cfg.HealthCheck.Timeout)
		assert.Equal(t, 500*time.Millisecond, cfg.HealthCheck.RetryInterval)
		assert.Equal(t, 2, cfg.HealthCheck.MaxRetries)
	})

	t.Run("override with environment variables", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("LOG_LEVEL", "warn")
		t.Setenv("PORT", "8181")
		t.Setenv("DATASET_SEED", "7")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.App.Env)
		assert.Equal(t, "warn", cfg.App.LogLevel)
		assert.Equal(t, 8181, cfg.App.Port)
		assert.Equal(t, int64(7), cfg.Dataset.Seed)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.CorsAllowedOrigins)
		assert.False(t, cfg.IsDevelopment())
	})

	t.Run("invalid cache driver", func(t *testing.T) {
		t.Setenv("CACHE_DRIVER", "memcached")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("minio storage keeps default bucket", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "minio")
		t.Setenv("MINIO_BUCKET", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "ridership-reports", cfg.Minio.Bucket)
	})
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	require.NoError(t, os.Chdir(tmpDir))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ridership-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, int64(0), cfg.Dataset.Seed)
	assert.Equal(t, "2025-03-01", cfg.Dataset.StartDate)
	assert.Equal(t, 30, cfg.Dataset.Days)
	assert.Equal(t, time.Duration(0), cfg.Dataset.RefreshInterval)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 8, cfg.API.RouteChartLimit)
	assert.Equal(t, "memory", cfg.ReportRepository())
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.IsDevelopment())
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:         AppConfig{Name: "ridership-api", Env: "test", Port: 8080},
			Dataset:     DatasetConfig{StartDate: "2025-03-01", Days: 30},
			Cache:       CacheConfig{Driver: "memory", ViewTTL: time.Minute},
			Storage:     StorageConfig{Driver: "memory"},
			Events:      EventsConfig{Driver: "none"},
			Scheduler:   SchedulerConfig{CleanupInterval: time.Hour, Timeout: time.Minute},
			Reports:     ReportsConfig{TTL: time.Hour},
			API:         APIConfig{BasePath: "/api/v1", RateLimit: 10, RateLimitWindow: time.Second, RouteChartLimit: 8, RouteDetailLimit: 5, DashboardRouteLimit: 5},
			HealthCheck: HealthCheckConfig{MaxRetries: 1},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(valid()))
	})

	t.Run("bad start date", func(t *testing.T) {
		cfg := valid()
		cfg.Dataset.StartDate = "01/03/2025"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("zero days", func(t *testing.T) {
		cfg := valid()
		cfg.Dataset.Days = 0
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("redis without host", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Driver = "redis"
		assert.Error(t, validateConfig(cfg))

		cfg.Redis.Host = "localhost"
		assert.NoError(t, validateConfig(cfg))
	})

	t.Run("minio without endpoint", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Driver = "minio"
		cfg.Minio.Bucket = "reports"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("report repository", func(t *testing.T) {
		cfg := valid()
		cfg.Reports.Repository = "redis"
		assert.Error(t, validateConfig(cfg))

		cfg.Reports.Repository = "postgres"
		assert.Error(t, validateConfig(cfg))

		cfg.Postgres.Host = "localhost"
		cfg.Postgres.Database = "ridership"
		assert.NoError(t, validateConfig(cfg))
		assert.Equal(t, "postgres", cfg.ReportRepository())

		cfg.Reports.Repository = "mongo"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("kafka events", func(t *testing.T) {
		cfg := valid()
		cfg.Events.Driver = "kafka"
		assert.Error(t, validateConfig(cfg))

		cfg.Kafka.Brokers = []string{"localhost:9092"}
		cfg.Kafka.Topic = "ridership.dataset"
		assert.NoError(t, validateConfig(cfg))
	})

	t.Run("base path must be absolute", func(t *testing.T) {
		cfg := valid()
		cfg.API.BasePath = "api"
		assert.Error(t, validateConfig(cfg))
	})
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss word", Database: "ridership"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/ridership?sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/ridership?sslmode=require", cfg.DSN())
}
