package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"notechan/internal/notes/adapters/cache"
	"notechan/internal/notes/app"
	"notechan/internal/notes/config"
	"notechan/internal/notes/db"
	portcache "notechan/internal/notes/ports/cache"
	"notechan/internal/notes/ports/cleanup"
	"notechan/internal/notes/resilience"
	redisdb "notechan/pkg/db/redis"
)

// Константы для сообщений инициализации.
const (
	ErrInitDB    = "failed to initialize storage"
	ErrInitRedis = "failed to connect to redis"
)

const sweeperGuardName = "cleanup_store"

// openRedis подключается к Redis, если он нужен кэшу или очереди очистки.
// Возвращает nil без ошибки, когда оба выключены.
func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Cache.Enabled && !cfg.Sweeper.Enabled {
		return nil, nil
	}
	client, err := redisdb.NewClient(ctx, cfg.Redis.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrInitRedis, err)
	}
	return client, nil
}

// noteCache возвращает кэш заметок под Circuit Breaker'ом или nil, если кэш выключен.
func noteCache(cfg *config.Config, client *redis.Client) portcache.Cache {
	if client == nil || !cfg.Cache.Enabled {
		return nil
	}
	return resilience.NewGuardedCache(
		cache.NewRedisCache(client, cfg.Cache.KeyPrefix, cfg.Cache.TTL),
		resilience.CircuitBreakerConfig{
			ErrorThreshold:   cfg.Cache.BreakerThreshold,
			Timeout:          cfg.Cache.BreakerReset,
			SuccessThreshold: cfg.Cache.BreakerHalfOpen,
		},
	)
}

// cleanupQueue возвращает очередь очистки или nil, если очистка выключена.
func cleanupQueue(cfg *config.Config, client *redis.Client) cleanup.Queue {
	if client == nil || !cfg.Sweeper.Enabled {
		return nil
	}
	return cache.NewRedisCleanupQueue(client, cfg.Sweeper.QueueKey)
}

// newSweeper собирает Sweeper с повторами и Circuit Breaker вокруг хранилища.
// Дочищенные заметки удаляются из notes, если он не nil.
func newSweeper(cfg *config.Config, store *db.Store, queue cleanup.Queue, notes portcache.Cache) *app.Sweeper {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Sweeper.RetryAttempts
	retry.InitialBackoff = cfg.Sweeper.RetryDelay

	guard := resilience.NewServiceResilience(sweeperGuardName, resilience.DefaultCircuitBreakerConfig(), retry)
	return app.NewSweeper(queue, store.Notes(), store.Channels(), notes, guard, cfg.Sweeper.BatchSize)
}
