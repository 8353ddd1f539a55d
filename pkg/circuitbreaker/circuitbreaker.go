package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without calling fn while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

type Settings struct {
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures int
	// Timeout is how long the breaker stays open before a trial call.
	Timeout time.Duration
	// OnStateChange, if set, is called with the lock released.
	OnStateChange func(name string, from, to State)
}

type CircuitBreaker struct {
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		settings: settings,
		now:      time.Now,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// currentState must be called with the lock held.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.settings.Timeout {
		return StateHalfOpen
	}
	return cb.state
}

// Execute runs fn unless the breaker is open. In half-open state one call is
// let through; its outcome closes or reopens the breaker.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	before := cb.currentState()
	if before == StateOpen {
		cb.mu.Unlock()
		return ErrOpen
	}
	if before == StateHalfOpen {
		// hold the breaker open for concurrent callers while the trial runs
		cb.state = StateOpen
		cb.openedAt = cb.now()
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	from := cb.state
	if err != nil {
		cb.failures++
		if before == StateHalfOpen || cb.failures >= cb.settings.MaxFailures {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
	} else {
		cb.failures = 0
		cb.state = StateClosed
	}
	to := cb.state
	cb.mu.Unlock()

	if before == StateHalfOpen {
		from = StateHalfOpen
	}
	if from != to && cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
	return err
}
