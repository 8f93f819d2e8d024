package resilience

import "time"

// CircuitBreakerServiceConfig is the tuning knobs for one named service's
// circuit breaker, expressed in the units an operator would reach for
// (failure ratio, timeouts, request counts) rather than CircuitBreaker's
// internal CircuitBreakerConfig shape directly.
type CircuitBreakerServiceConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	FailureThreshold    float64
	SuccessThreshold    uint32
	MinimumRequestCount uint32
	MaxRequestsHalfOpen uint32
}

// ToCircuitBreakerConfig converts a service config to the CircuitBreaker
// constructor's CircuitBreakerConfig.
func (c CircuitBreakerServiceConfig) ToCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:    int(c.MinimumRequestCount),
		FailureRatio:        c.FailureThreshold,
		SuccessThreshold:    int(c.SuccessThreshold),
		ResetTimeout:        c.Timeout,
		TimeoutThreshold:    c.Timeout,
		MinimumRequestCount: int(c.MinimumRequestCount),
		MaxRequestsHalfOpen: int(c.MaxRequestsHalfOpen),
	}
}

// DefaultCircuitBreakerConfigs seeds a CircuitBreakerManager with this
// core's own I/O boundaries: the opstore Postgres writer and the resource
// store's S3 backend, the two places spec.md's domain stack calls for a
// circuit breaker (§ "breaks on repeated I/O failure so autosave retries
// don't pile up"). A service name absent here still gets
// CircuitBreakerManager's own built-in default on first use.
var DefaultCircuitBreakerConfigs = map[string]CircuitBreakerServiceConfig{
	"opstore_postgres": {
		MaxRequests:         200,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    0.1,
		SuccessThreshold:    5,
		MinimumRequestCount: 20,
		MaxRequestsHalfOpen: 20,
	},
	"resource_s3": {
		MaxRequests:         200,
		Interval:            10 * time.Second,
		Timeout:             30 * time.Second,
		FailureThreshold:    0.3,
		SuccessThreshold:    3,
		MinimumRequestCount: 10,
		MaxRequestsHalfOpen: 20,
	},
}

// DefaultManagerConfigs converts DefaultCircuitBreakerConfigs into the
// map[string]CircuitBreakerConfig NewCircuitBreakerManager expects.
func DefaultManagerConfigs() map[string]CircuitBreakerConfig {
	out := make(map[string]CircuitBreakerConfig, len(DefaultCircuitBreakerConfigs))
	for name, cfg := range DefaultCircuitBreakerConfigs {
		out[name] = cfg.ToCircuitBreakerConfig()
	}
	return out
}
