package config

import "time"

// RateLimitConfig задает ограничение частоты запросов на пользователя.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" env:"NOTES_RATE_LIMIT_ENABLED" env-default:"true"`
	RPS     float64       `yaml:"rps" env:"NOTES_RATE_LIMIT_RPS" env-default:"20"`
	Burst   int           `yaml:"burst" env:"NOTES_RATE_LIMIT_BURST" env-default:"40"`
	IdleTTL time.Duration `yaml:"idle_ttl" env:"NOTES_RATE_LIMIT_IDLE_TTL" env-default:"10m"`
}

// SweeperConfig управляет фоновой очисткой после частичного каскадного удаления.
type SweeperConfig struct {
	Enabled       bool          `yaml:"enabled" env:"NOTES_SWEEPER_ENABLED" env-default:"true"`
	Interval      time.Duration `yaml:"interval" env:"NOTES_SWEEPER_INTERVAL" env-default:"30s"`
	BatchSize     int           `yaml:"batch_size" env:"NOTES_SWEEPER_BATCH_SIZE" env-default:"50"`
	QueueKey      string        `yaml:"queue_key" env:"NOTES_SWEEPER_QUEUE_KEY" env-default:"notechan:cleanup"`
	RetryAttempts int           `yaml:"retry_attempts" env:"NOTES_SWEEPER_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay    time.Duration `yaml:"retry_delay" env:"NOTES_SWEEPER_RETRY_DELAY" env-default:"200ms"`
}
