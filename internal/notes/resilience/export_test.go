package resilience

import "time"

// SetClock подменяет источник времени Circuit Breaker'а в тестах.
func (cb *CircuitBreaker) SetClock(now func() time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = now
}

// Breaker открывает доступ к Circuit Breaker'у кэша в тестах.
func (g *GuardedCache) Breaker() *CircuitBreaker {
	return g.breaker
}
