// Package resilience guards calls to the optional network services (Redis,
// Kafka, PostgreSQL) so that their failure degrades a query session
// instead of ending it.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without calling the service while a breaker
// is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

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
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a Breaker. Zero fields take the defaults below.
// OnStateChange runs with the breaker lock held and must not call back
// into the breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the
	// breaker.
	Threshold int
	// Cooldown is how long an open breaker rejects calls before letting a
	// single probe through.
	Cooldown time.Duration
	// Timeout bounds every call made through the breaker. Zero leaves
	// calls bounded only by the caller's context.
	Timeout       time.Duration
	OnStateChange func(name string, from, to State)

	now func() time.Time
}

const (
	defaultThreshold = 5
	defaultCooldown  = 30 * time.Second
)

// Breaker counts consecutive failures of one service. Once Threshold is
// reached it opens and fails fast until Cooldown has passed, then admits
// one probe whose outcome closes or re-opens it. Calls abandoned because
// the caller's own context ended are not held against the service.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
	}
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do calls fn unless the breaker is open, bounding it by the configured
// timeout, and records the outcome.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := WithTimeout(ctx, b.cfg.Timeout, b.name, fn)
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		wait := b.cfg.Cooldown - b.cfg.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: %s (retry in %v)", ErrCircuitOpen, b.name, wait.Round(time.Millisecond))
		}
		b.transition(StateHalfOpen)
		b.probing = true
		b.logger.Info("circuit half-open, probing", "cooldown", b.cfg.Cooldown)
	case StateHalfOpen:
		if b.probing {
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, b.name)
		}
		b.probing = true
	}
	return nil
}

// release undoes admit for a call that never reached a verdict.
func (b *Breaker) release() {
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err == nil {
		b.failures = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
			b.logger.Info("circuit closed, service recovered")
		}
		return
	}

	b.failures++
	switch {
	case b.state == StateHalfOpen:
		b.open()
		b.logger.Warn("circuit re-opened, probe failed", "error", err)
	case b.state == StateClosed && b.failures >= b.cfg.Threshold:
		b.open()
		b.logger.Warn("circuit opened", "consecutive_failures", b.failures, "error", err)
	}
}

func (b *Breaker) open() {
	b.openedAt = b.cfg.now()
	b.transition(StateOpen)
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}

// Reset closes the breaker and forgets past failures.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.probing = false
	b.transition(StateClosed)
}
