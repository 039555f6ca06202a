package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"notechan/internal/notes/ports/cache"
)

// GuardedCache защищает кэш Circuit Breaker'ом.
// При открытом контуре чтение дает промах, запись пропускается, а удаление
// возвращает ErrCircuitOpen, чтобы вызывающий мог это залогировать.
// Ключи, удалить которые не удалось, запоминаются: пока удаление не пройдет,
// они читаются как промах и повторно удаляются при следующем обращении.
type GuardedCache struct {
	cache   cache.Cache
	breaker *CircuitBreaker

	mu      sync.Mutex
	pending map[string]struct{}
}

var _ cache.Cache = (*GuardedCache)(nil)

// NewGuardedCache оборачивает c. Промах кэша не считается отказом.
func NewGuardedCache(c cache.Cache, config CircuitBreakerConfig) *GuardedCache {
	config.IsFailure = func(err error) bool {
		return !errors.Is(err, cache.ErrCacheMiss)
	}
	return &GuardedCache{
		cache:   c,
		breaker: NewCircuitBreaker("cache", config),
		pending: make(map[string]struct{}),
	}
}

// Get читает значение, при открытом контуре возвращает cache.ErrCacheMiss.
// Для ключа с несостоявшимся удалением сначала повторяется удаление.
func (g *GuardedCache) Get(ctx context.Context, key string) ([]byte, error) {
	if g.isPending(key) {
		_ = g.Delete(ctx, key)
		return nil, cache.ErrCacheMiss
	}

	var value []byte
	err := g.breaker.Execute(ctx, func() error {
		var err error
		value, err = g.cache.Get(ctx, key)
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, cache.ErrCacheMiss
	}
	return value, err
}

// Set записывает значение, при открытом контуре ничего не делает.
func (g *GuardedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := g.breaker.Execute(ctx, func() error {
		return g.cache.Set(ctx, key, value, ttl)
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil
	}
	if err == nil {
		g.settle(key)
	}
	return err
}

// Delete удаляет ключи. При ошибке ключи остаются в списке ожидающих удаления.
func (g *GuardedCache) Delete(ctx context.Context, keys ...string) error {
	err := g.breaker.Execute(ctx, func() error {
		return g.cache.Delete(ctx, keys...)
	})
	if err != nil {
		g.markPending(keys...)
		return err
	}
	g.settle(keys...)
	return nil
}

// Pending возвращает число ключей, ожидающих удаления.
func (g *GuardedCache) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *GuardedCache) isPending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[key]
	return ok
}

func (g *GuardedCache) markPending(keys ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		g.pending[k] = struct{}{}
	}
}

func (g *GuardedCache) settle(keys ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		delete(g.pending, k)
	}
}

// Close закрывает нижележащий кэш.
func (g *GuardedCache) Close() error {
	return g.cache.Close()
}

// State возвращает состояние Circuit Breaker.
func (g *GuardedCache) State() CircuitState {
	return g.breaker.GetState()
}
