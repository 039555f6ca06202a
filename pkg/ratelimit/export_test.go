package ratelimit

import "time"

// SetClock подменяет источник времени в тестах.
func (krl *KeyedRateLimiter) SetClock(now func() time.Time) {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	krl.now = now
}
