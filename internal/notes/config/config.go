// Package config содержит конфигурацию сервиса заметок.
package config

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "notechan/pkg/config"
	"notechan/pkg/logger"
)

// Константы ошибок и сообщений для конфигурации.
const (
	ServiceName = "notes"

	LogConfigLoaded       = "Configuration loaded successfully"
	ErrFailedLoadConfig   = "Failed to load configuration"
	ErrInvalidConfigValue = "invalid configuration"
)

// ErrInvalidConfig возвращается, если значения конфигурации противоречат друг другу.
var ErrInvalidConfig = errors.New(ErrInvalidConfigValue)

// Config представляет полную конфигурацию приложения.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	JWT       JWTConfig       `yaml:"jwt"`
	Logging   LoggingConfig   `yaml:"logging"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
}

// Load загружает конфигурацию из переменных окружения и, если path не пуст, из файла.
func Load(ctx context.Context, path string) (*Config, error) {
	log := logger.Log(ctx)

	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, err
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("mongo_database", cfg.Mongo.Database),
		zap.String("redis_address", cfg.Redis.GetAddress()),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("grpc_address", cfg.GRPC.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout))

	return cfg, nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Postgres.MinConn < 0 || c.Postgres.MaxConn < c.Postgres.MinConn {
		return fmt.Errorf("%w: postgres pool bounds %d..%d", ErrInvalidConfig, c.Postgres.MinConn, c.Postgres.MaxConn)
	}

	if c.JWT.SecretKey == "" {
		return fmt.Errorf("%w: empty jwt secret", ErrInvalidConfig)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("%w: rate limit requires positive rps and burst", ErrInvalidConfig)
	}

	if c.Sweeper.BatchSize <= 0 {
		return fmt.Errorf("%w: sweeper batch size must be positive", ErrInvalidConfig)
	}

	return nil
}
