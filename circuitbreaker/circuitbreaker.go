// Package circuitbreaker guards calls to upstream services (IBGE, the
// GeoJSON host) so a dead upstream fails fast instead of piling up requests.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means the circuit is operating normally
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests
	StateOpen
	// StateHalfOpen means the circuit is testing if it can close
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker
type Config struct {
	Name             string        // Upstream name used in logs and metrics
	FailureThreshold int           // Consecutive failures before opening
	Timeout          time.Duration // Time spent OPEN before probing in HALF-OPEN
	HalfOpenRequests int           // Probe requests allowed in HALF-OPEN
	Logger           *slog.Logger  // Optional
	// OnStateChange is called with the lock held; it must not call back into the breaker.
	OnStateChange func(name string, from, to State)
	// Now overrides the clock in tests.
	Now func() time.Time
}

// CircuitBreaker defines the interface for circuit breaker functionality
type CircuitBreaker interface {
	// Execute runs fn if the circuit allows it
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	// State returns the current state of the circuit breaker
	State() State
	// Reset resets the circuit breaker to CLOSED state
	Reset()
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in OPEN state
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrHalfOpenLimitReached is returned when too many requests are made in HALF-OPEN state
	ErrHalfOpenLimitReached = errors.New("circuit breaker half-open request limit reached")
)

type breaker struct {
	cfg Config
	mu  sync.Mutex

	state State
	// generation changes on every transition so results of calls admitted
	// under an earlier state are dropped.
	generation uint64
	failures   int       // consecutive failures while CLOSED
	probes     int       // probes admitted while HALF-OPEN
	successes  int       // probes that succeeded while HALF-OPEN
	retryAt    time.Time // when an OPEN circuit starts probing
}

// New creates a new circuit breaker with the given configuration
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &breaker{cfg: cfg, state: StateClosed}
}

// Execute runs fn if the circuit allows it. The lock is not held while fn runs.
func (b *breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	gen, err := b.admit()
	if err != nil {
		return err
	}
	err = fn(ctx)
	b.settle(gen, err)
	return err
}

func (b *breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && !b.cfg.Now().Before(b.retryAt) {
		b.setState(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		return 0, ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.cfg.HalfOpenRequests {
			return 0, ErrHalfOpenLimitReached
		}
		b.probes++
	}
	return b.generation, nil
}

// settle records the outcome of a call admitted in generation gen.
// A canceled call says nothing about the upstream and only frees its probe slot.
func (b *breaker) settle(gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		return
	}

	switch {
	case err == nil:
		if b.state == StateHalfOpen {
			b.successes++
			if b.successes >= b.cfg.HalfOpenRequests {
				b.setState(StateClosed)
			}
			return
		}
		b.failures = 0

	case errors.Is(err, context.Canceled):
		if b.state == StateHalfOpen {
			b.probes--
		}

	default:
		if b.state == StateHalfOpen {
			b.setState(StateOpen)
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.setState(StateOpen)
		}
	}
}

// State returns the current state of the circuit breaker
func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit and clears its counters
func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.setState(StateClosed)
}

// setState moves to next and starts a new generation. Callers hold the lock.
func (b *breaker) setState(next State) {
	if b.state == next {
		return
	}
	prev := b.state

	b.state = next
	b.generation++
	b.failures, b.probes, b.successes = 0, 0, 0
	if next == StateOpen {
		b.retryAt = b.cfg.Now().Add(b.cfg.Timeout)
	}

	if b.cfg.Logger != nil {
		b.cfg.Logger.Warn("circuit breaker state changed",
			"upstream", b.cfg.Name,
			"from", prev.String(),
			"to", next.String(),
		)
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, prev, next)
	}
}
