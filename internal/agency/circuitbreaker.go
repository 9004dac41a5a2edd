package agency

import (
	"sync"
	"time"
)

// circuitState is the classic closed/open/half-open state machine. No
// third-party circuit-breaker library appears anywhere in the reference
// corpus (checked the full example set for sony/gobreaker, afex/hystrix-go,
// and equivalents); this hand-rolled version is deliberately small and
// sits next to the poller it protects. See DESIGN.md.
type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

// circuitBreaker trips after consecutiveFailures in a row and stays open
// for cooldown before allowing a single half-open probe through.
type circuitBreaker struct {
	mu                  sync.Mutex
	state               circuitState
	failures            int
	consecutiveFailures int
	cooldown            time.Duration
	openedAt            time.Time
}

func newCircuitBreaker(consecutiveFailures int, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{
		consecutiveFailures: consecutiveFailures,
		cooldown:            cooldown,
	}
}

// Allow reports whether a call should be attempted right now.
func (b *circuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *circuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = stateClosed
	b.failures = 0
}

// RecordFailure increments the failure count and trips the breaker open
// once the threshold is reached, or immediately if a half-open probe failed.
func (b *circuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.state = stateOpen
		b.openedAt = time.Now()
		return
	}

	b.failures++
	if b.failures >= b.consecutiveFailures {
		b.state = stateOpen
		b.openedAt = time.Now()
	}
}
