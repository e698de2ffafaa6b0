package providers

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per upstream provider so a screening
// pass over a few hundred symbols stays inside free-tier API budgets.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mutex    sync.RWMutex
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// InitializeProvider registers a bucket for the named provider.
func (rl *RateLimiter) InitializeProvider(provider string, rps float64, burst int) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.limiters[provider] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until the provider's bucket grants a token or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, provider string) error {
	rl.mutex.RLock()
	limiter, exists := rl.limiters[provider]
	rl.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("rate limiter not initialized for provider: %s", provider)
	}

	return limiter.Wait(ctx)
}
