package formstore

import (
	"errors"
	"sync"
	"time"
)

// BreakerState represents the snapshot-store circuit breaker state.
type BreakerState int

const (
	BreakerClosed   BreakerState = 0 // normal operation, writes pass through
	BreakerOpen     BreakerState = 1 // tripped, writes rejected immediately
	BreakerHalfOpen BreakerState = 2 // probing, one write allowed through
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned while the breaker rejects calls.
var ErrBreakerOpen = errors.New("snapshot store circuit open")

// breaker keeps a flaky Redis from slowing every form edit: after
// maxFailures consecutive failures it opens and fails writes fast for
// resetTimeout, then lets one probe through. Persistence is best-effort
// anyway, so a fast ErrBreakerOpen beats a hanging save.
type breaker struct {
	mu           sync.Mutex
	state        BreakerState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time

	onStateChange func(from, to BreakerState)
}

func newBreaker(maxFailures int, resetTimeout time.Duration) *breaker {
	return &breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        BreakerClosed,
	}
}

// execute runs fn through the breaker.
func (b *breaker) execute(fn func() error) error {
	b.mu.Lock()
	if b.state == BreakerOpen {
		if time.Since(b.lastFailure) > b.resetTimeout {
			b.transition(BreakerHalfOpen)
		} else {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == BreakerHalfOpen {
			b.transition(BreakerOpen)
		} else if b.failures >= b.maxFailures {
			b.transition(BreakerOpen)
		}
		return err
	}

	if b.state == BreakerHalfOpen {
		b.transition(BreakerClosed)
	}
	b.failures = 0
	return nil
}

func (b *breaker) currentState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if to == BreakerClosed {
		b.failures = 0
	}
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
