package providers

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerManager holds one circuit breaker per upstream provider. A tripped
// breaker fails requests fast instead of hammering a degraded API.
type BreakerManager struct {
	breakers map[string]*gobreaker.CircuitBreaker
	mutex    sync.RWMutex
}

// BreakerConfig tunes one provider's breaker.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig trips after five straight failures and probes again
// after thirty seconds.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxRequests:         3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

func NewBreakerManager() *BreakerManager {
	return &BreakerManager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// InitializeProvider registers a breaker for the named provider.
func (bm *BreakerManager) InitializeProvider(name string, config *BreakerConfig) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Provider circuit breaker state change")
		},
	}

	bm.breakers[name] = gobreaker.NewCircuitBreaker(settings)
}

// Execute runs fn through the provider's breaker.
func (bm *BreakerManager) Execute(provider string, fn func() (interface{}, error)) (interface{}, error) {
	bm.mutex.RLock()
	breaker, exists := bm.breakers[provider]
	bm.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("circuit breaker not found for provider: %s", provider)
	}

	return breaker.Execute(fn)
}
