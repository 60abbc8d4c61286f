// Package resilience wraps sony/gobreaker with the settings shared by all
// outbound adapters.
package resilience

import (
	"time"

	"github.com/sony/gobreaker"

	"mailagent/pkg/logger"
)

// BreakerConfig tunes a circuit breaker. Zero values fall back to the
// defaults below.
type BreakerConfig struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state counter reset window
	Timeout      time.Duration // open-state cooldown
	MinRequests  uint32        // samples required before the ratio trips
	FailureRatio float64
	MaxFailures  uint32 // consecutive failures that trip regardless of ratio
}

// DefaultBreakerConfig matches the profile used for external HTTP calls:
// trip on a run of failures or a sustained failure ratio, probe sparingly.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
		MaxFailures:  5,
	}
}

// NewBreaker builds a circuit breaker with state transitions logged.
func NewBreaker(name string, cfg BreakerConfig, log *logger.Logger) *gobreaker.CircuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = def.FailureRatio
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if log == nil {
		log = logger.Default()
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > cfg.MaxFailures ||
				(counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}
