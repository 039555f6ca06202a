package config

import (
	"fmt"
	"time"

	redisdb "notechan/pkg/db/redis"
)

// RedisConfig представляет конфигурацию для Redis.
type RedisConfig struct {
	Host            string        `yaml:"host" env:"NOTES_REDIS_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"NOTES_REDIS_PORT" env-default:"6379"`
	Password        string        `yaml:"password" env:"NOTES_REDIS_PASSWORD" env-default:""`
	DB              int           `yaml:"db" env:"NOTES_REDIS_DB" env-default:"0"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env:"NOTES_REDIS_CONNECT_TIMEOUT" env-default:"5s"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"NOTES_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"NOTES_REDIS_WRITE_TIMEOUT" env-default:"3s"`
	PoolSize        int           `yaml:"pool_size" env:"NOTES_REDIS_POOL_SIZE" env-default:"10"`
	MinIdle         int           `yaml:"min_idle" env:"NOTES_REDIS_MIN_IDLE" env-default:"2"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"NOTES_REDIS_IDLE_TIMEOUT" env-default:"5m"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"NOTES_REDIS_MAX_CONN_LIFETIME" env-default:"1h"`
}

// GetAddress возвращает адрес Redis.
func (c *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClientConfig переводит настройки в конфигурацию клиента pkg/db/redis.
func (c *RedisConfig) ClientConfig() *redisdb.Config {
	return &redisdb.Config{
		Host:            c.Host,
		Port:            c.Port,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdle:         c.MinIdle,
		DialTimeout:     c.ConnectTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		IdleTimeout:     c.IdleTimeout,
		MaxConnLifetime: c.MaxConnLifetime,
	}
}

// CacheConfig управляет кэшем заметок и защищающим его circuit breaker.
type CacheConfig struct {
	Enabled          bool          `yaml:"enabled" env:"NOTES_CACHE_ENABLED" env-default:"true"`
	TTL              time.Duration `yaml:"ttl" env:"NOTES_CACHE_TTL" env-default:"15m"`
	KeyPrefix        string        `yaml:"key_prefix" env:"NOTES_CACHE_KEY_PREFIX" env-default:"notechan:"`
	BreakerThreshold int           `yaml:"breaker_threshold" env:"NOTES_CACHE_BREAKER_THRESHOLD" env-default:"5"`
	BreakerReset     time.Duration `yaml:"breaker_reset" env:"NOTES_CACHE_BREAKER_RESET" env-default:"30s"`
	BreakerHalfOpen  int           `yaml:"breaker_half_open" env:"NOTES_CACHE_BREAKER_HALF_OPEN" env-default:"2"`
}
