package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DateLayout = "2006-01-02"

type Config struct {
	App         AppConfig
	Dataset     DatasetConfig
	Catalog     CatalogConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Minio       MinioConfig
	Postgres    PostgresConfig
	Events      EventsConfig
	Kafka       KafkaConfig
	Scheduler   SchedulerConfig
	Reports     ReportsConfig
	API         APIConfig
	HealthCheck HealthCheckConfig
}

type AppConfig struct {
	Name            string        `mapstructure:"name" validate:"required"`
	Env             string        `mapstructure:"env" validate:"required"`
	LogLevel        string        `mapstructure:"log_level"`
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatasetConfig controls the mock generator. Seed 0 picks a random seed at
// startup; RefreshInterval 0 disables scheduled regeneration.
type DatasetConfig struct {
	Seed            int64         `mapstructure:"seed"`
	StartDate       string        `mapstructure:"start_date" validate:"required"`
	Days            int           `mapstructure:"days" validate:"gte=1,lte=366"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type CacheConfig struct {
	Driver  string        `mapstructure:"driver" validate:"oneof=memory redis"`
	ViewTTL time.Duration `mapstructure:"view_ttl" validate:"gt=0"`
}

type RedisConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Password           string        `mapstructure:"password"`
	DB                 int           `mapstructure:"db"`
	PoolSize           int           `mapstructure:"pool_size"`
	MinIdleConnections int           `mapstructure:"min_idle_connections"`
	MaxRetries         int           `mapstructure:"max_retries"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory minio"`
}

type MinioConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN builds a pgx connection string.
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + sslMode,
	}
	return dsn.String()
}

type EventsConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=none kafka"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	RequiredAcks int16         `mapstructure:"required_acks"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// ReportsConfig.Repository selects where report metadata lives. Empty
// follows the cache driver.
type ReportsConfig struct {
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	Repository string        `mapstructure:"repository" validate:"omitempty,oneof=memory redis postgres"`
}

type APIConfig struct {
	BasePath            string        `mapstructure:"base_path" validate:"required,startswith=/"`
	CorsAllowedOrigins  []string      `mapstructure:"cors_allowed_origins"`
	RateLimit           int           `mapstructure:"rate_limit" validate:"gt=0"`
	RateLimitWindow     time.Duration `mapstructure:"rate_limit_window" validate:"gt=0"`
	CacheMaxAge         time.Duration `mapstructure:"cache_max_age"`
	RouteChartLimit     int           `mapstructure:"route_chart_limit" validate:"gt=0"`
	RouteDetailLimit    int           `mapstructure:"route_detail_limit" validate:"gt=0"`
	DashboardRouteLimit int           `mapstructure:"dashboard_route_limit" validate:"gt=0"`
}

type HealthCheckConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"gte=1"`
}

func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ridership-api/")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("ошибка чтения конфигурационного файла: %w", err)
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("невалидная конфигурация: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ridership-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("dataset.seed", 0)
	v.SetDefault("dataset.start_date", "2025-03-01")
	v.SetDefault("dataset.days", 30)
	v.SetDefault("dataset.refresh_interval", "0s")

	v.SetDefault("catalog.path", "")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.view_ttl", "10m")

	v.SetDefault("redis.host", "redis")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_connections", 2)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.timeout", "5s")

	v.SetDefault("storage.driver", "memory")

	v.SetDefault("minio.endpoint", "minio:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.bucket", "ridership-reports")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.timeout", "30s")

	v.SetDefault("postgres.host", "postgres")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "ridership")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "ridership")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_connections", 5)

	v.SetDefault("events.driver", "none")

	v.SetDefault("kafka.brokers", []string{"kafka:9092"})
	v.SetDefault("kafka.topic", "ridership.dataset")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.timeout", "5s")

	v.SetDefault("scheduler.cleanup_interval", "1h")
	v.SetDefault("scheduler.timeout", "2m")

	v.SetDefault("reports.ttl", "24h")
	v.SetDefault("reports.repository", "")

	v.SetDefault("api.base_path", "/api/v1")
	v.SetDefault("api.cors_allowed_origins", []string{"*"})
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_limit_window", "1m")
	v.SetDefault("api.cache_max_age", "5m")
	v.SetDefault("api.route_chart_limit", 8)
	v.SetDefault("api.route_detail_limit", 5)
	v.SetDefault("api.dashboard_route_limit", 5)

	v.SetDefault("healthcheck.timeout", "5s")
	v.SetDefault("healthcheck.retry_interval", "2s")
	v.SetDefault("healthcheck.max_retries", 3)
}

func overrideFromEnv(v *viper.Viper) {
	if env := os.Getenv("APP_ENV"); env != "" {
		v.Set("app.env", env)
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("app.log_level", logLevel)
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("app.port", p)
		}
	}

	if seed := os.Getenv("DATASET_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			v.Set("dataset.seed", s)
		}
	}
	if path := os.Getenv("CATALOG_PATH"); path != "" {
		v.Set("catalog.path", path)
	}

	if driver := os.Getenv("CACHE_DRIVER"); driver != "" {
		v.Set("cache.driver", driver)
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("redis.host", host)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("redis.password", password)
	}

	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		v.Set("storage.driver", driver)
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		v.Set("minio.endpoint", endpoint)
	}
	if accessKey := os.Getenv("MINIO_ACCESS_KEY"); accessKey != "" {
		v.Set("minio.access_key", accessKey)
	}
	if secretKey := os.Getenv("MINIO_SECRET_KEY"); secretKey != "" {
		v.Set("minio.secret_key", secretKey)
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		v.Set("minio.bucket", bucket)
	}

	if repository := os.Getenv("REPORTS_REPOSITORY"); repository != "" {
		v.Set("reports.repository", repository)
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		v.Set("postgres.host", host)
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		v.Set("postgres.user", user)
	}
	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		v.Set("postgres.password", password)
	}
	if database := os.Getenv("POSTGRES_DB"); database != "" {
		v.Set("postgres.database", database)
	}

	if driver := os.Getenv("EVENTS_DRIVER"); driver != "" {
		v.Set("events.driver", driver)
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		v.Set("kafka.brokers", splitList(brokers))
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		v.Set("kafka.topic", topic)
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		v.Set("api.cors_allowed_origins", splitList(origins))
	}
}

func splitList(value string) []string {
	list := strings.Split(value, ",")
	for i, item := range list {
		list[i] = strings.TrimSpace(item)
	}
	return list
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if _, err := time.Parse(DateLayout, cfg.Dataset.StartDate); err != nil {
		return fmt.Errorf("дата начала набора данных должна быть в формате YYYY-MM-DD: %w", err)
	}

	if cfg.Cache.Driver == "redis" && cfg.Redis.Host == "" {
		return fmt.Errorf("Redis хост не может быть пустым")
	}

	switch cfg.ReportRepository() {
	case "redis":
		if cfg.Cache.Driver != "redis" {
			return fmt.Errorf("хранилище отчетов redis требует cache.driver=redis")
		}
	case "postgres":
		if cfg.Postgres.Host == "" || cfg.Postgres.Database == "" {
			return fmt.Errorf("Postgres хост и база данных не могут быть пустыми")
		}
	}

	if cfg.Events.Driver == "kafka" {
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("список Kafka брокеров не может быть пустым")
		}
		if cfg.Kafka.Topic == "" {
			return fmt.Errorf("Kafka топик не может быть пустым")
		}
	}

	if cfg.Storage.Driver == "minio" {
		if cfg.Minio.Endpoint == "" {
			return fmt.Errorf("Minio endpoint не может быть пустым")
		}
		if cfg.Minio.Bucket == "" {
			return fmt.Errorf("Minio bucket не может быть пустым")
		}
	}

	return nil
}

// DatasetStart returns the parsed first day of the simulated period.
func (c *Config) DatasetStart() time.Time {
	start, err := time.Parse(DateLayout, c.Dataset.StartDate)
	if err != nil {
		return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return start
}

// ReportRepository resolves the report metadata backend.
func (c *Config) ReportRepository() string {
	if c.Reports.Repository != "" {
		return c.Reports.Repository
	}
	return c.Cache.Driver
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
