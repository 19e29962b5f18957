package middlewares

import "time"

func (rl *RateLimiter) SetClock(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.now = now
}
