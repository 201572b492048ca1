// Package circuitbreaker stops sending requests to an exchange that keeps
// failing, and tries it again after a cool-down.
package circuitbreaker

import (
	"sync"
	"time"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	// FailThreshold consecutive failures open the breaker.
	FailThreshold int `json:"fail_threshold" validate:"min=1"`
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int `json:"success_threshold" validate:"min=1"`
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`
}

// StateChangeFunc observes transitions. It is called with the breaker lock held
// and must not call back into the breaker.
type StateChangeFunc func(from, to State)

type Breaker struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	failures  int
	successes int
	openedAt  time.Time
	changes   int
	onChange  StateChangeFunc
	now       func() time.Time
}

func New(config Config) *Breaker {
	return &Breaker{cfg: config, now: time.Now}
}

// OnStateChange registers fn to be told about every transition.
func (b *Breaker) OnStateChange(fn StateChangeFunc) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Allow reports whether a request may go out. An open breaker whose timeout
// has elapsed moves to half-open and lets a trial request through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Timeout {
			return false
		}
		b.transition(StateHalfOpen)
		return true
	default:
		return true
	}
}

// Record feeds the outcome of a request that Allow let through.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Timeout {
		b.transition(StateHalfOpen)
	}

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailThreshold {
			b.trip()
		}
	case StateHalfOpen:
		if !success {
			b.trip()
			return
		}
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.transition(StateOpen)
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.failures = 0
	b.successes = 0
	b.changes++
	if b.onChange != nil {
		b.onChange(from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failures = 0
	b.successes = 0
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) Successes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.successes
}

// StateChanges counts transitions since the breaker was created.
func (b *Breaker) StateChanges() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changes
}
