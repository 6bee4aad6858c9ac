package officialresults

import (
	"context"
	"sync"
	"time"
)

// CircuitBreakerState represents the current state of a circuit breaker.
type CircuitBreakerState int

// Circuit breaker states.
const (
	// StateClosed allows all requests to pass through normally.
	StateClosed CircuitBreakerState = iota

	// StateOpen rejects all requests immediately until the cooldown expires.
	StateOpen

	// StateHalfOpen lets a single probe request test recovery.
	StateHalfOpen
)

// String returns the state name used as a metric label.
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker opens after maxFailures consecutive transient failures and
// rejects requests for cooldownDuration. Not-found and other permanent
// responses do not count as failures: the feed answered.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitBreakerState
	failureCount     int
	maxFailures      int
	cooldownDuration time.Duration
	lastFailure      time.Time
	probing          bool
	now              func() time.Time
}

// NewCircuitBreaker creates a circuit breaker with the specified configuration.
func NewCircuitBreaker(maxFailures int, cooldownDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		maxFailures:      maxFailures,
		cooldownDuration: cooldownDuration,
		now:              time.Now,
	}
}

// Call executes fn through the circuit breaker. If the circuit is open, it
// returns ErrCircuitOpen without calling fn. The lock is not held while fn
// runs.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.cooldownDuration {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probing = true
		return nil
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if err != nil && isRetryable(err) {
		cb.failureCount++
		cb.lastFailure = cb.now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.maxFailures {
			cb.state = StateOpen
		}
		return
	}
	cb.failureCount = 0
	cb.state = StateClosed
}

// GetState returns the current circuit breaker state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

type circuitBreakerFetcher struct {
	next Fetcher
	cb   *CircuitBreaker
}

// CircuitBreakerMiddleware creates middleware that implements the circuit breaker pattern.
// The circuit opens after maxFailures consecutive transient errors and stays open
// for the cooldown duration before attempting recovery.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	return CircuitBreakerMiddlewareWith(NewCircuitBreaker(maxFailures, cooldown))
}

// CircuitBreakerMiddlewareWith wraps fetchers with an existing breaker so
// its state can be inspected.
func CircuitBreakerMiddlewareWith(cb *CircuitBreaker) Middleware {
	return func(next Fetcher) Fetcher {
		return &circuitBreakerFetcher{next: next, cb: cb}
	}
}

// Fetch executes the request through the circuit breaker.
func (c *circuitBreakerFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := c.cb.Call(func() error {
		var err error
		body, err = c.next.Fetch(ctx, path)
		return err
	})
	return body, err
}

func (c *circuitBreakerFetcher) Name() string { return c.next.Name() }
