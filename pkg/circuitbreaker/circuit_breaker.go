// Package circuitbreaker guards calls to flaky upstreams. After a run of
// consecutive failures the breaker opens and rejects calls immediately; once
// the cooldown elapses a limited number of probe calls decide whether it
// closes again.
package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// OpenError is returned when a call is rejected without being attempted.
type OpenError struct {
	Name string
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open", e.Name)
}

// IsOpenError reports whether err is a breaker rejection rather than a
// failure of the guarded call itself.
func IsOpenError(err error) bool {
	_, ok := err.(*OpenError)
	return ok
}

// Breaker is a consecutive-failure circuit breaker. Safe for concurrent use.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	probeQuota  int
	logger      *logrus.Logger

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probesLeft  int
	probesOK    int
}

// New creates a breaker that opens after maxFailures consecutive failures
// and stays open for cooldown before allowing probe calls.
func New(name string, maxFailures int, cooldown time.Duration, logger *logrus.Logger) *Breaker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		probeQuota:  3,
		logger:      logger,
	}
}

// Do runs fn if the breaker allows it, recording the outcome.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.admit() {
		return &OpenError{Name: b.name}
	}
	err := fn(ctx)
	b.record(err == nil)
	return err
}

// State returns the breaker's current state, promoting open to half-open
// when the cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probesLeft > 0 {
			b.probesLeft--
			return true
		}
		return false
	default:
		return false
	}
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !ok {
		b.failures++
		if b.state == StateHalfOpen || (b.state == StateClosed && b.failures >= b.maxFailures) {
			b.trip()
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.probesOK++
		if b.probesOK >= b.probeQuota {
			b.state = StateClosed
			b.failures = 0
			b.logger.WithField("breaker", b.name).Info("Circuit breaker closed after recovery")
		}
	}
}

// trip and maybeHalfOpen require b.mu held.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.logger.WithFields(logrus.Fields{
		"breaker":  b.name,
		"failures": b.failures,
	}).Warn("Circuit breaker opened")
}

func (b *Breaker) maybeHalfOpen() {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cooldown {
		b.state = StateHalfOpen
		b.probesLeft = b.probeQuota
		b.probesOK = 0
		b.logger.WithField("breaker", b.name).Info("Circuit breaker half-open")
	}
}
