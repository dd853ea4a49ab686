// Package resilience guards calls to flaky remote hosts.
package resilience

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
)

var ErrCircuitOpen = crerr.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	d := DefaultCircuitBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = d.HalfOpenMaxReq
	}
	return c
}

type circuit struct {
	state     State
	failures  int
	openedAt  time.Time
	probes    int
	successes int
}

// HostBreaker keeps an independent circuit per key, normally the remote
// host, so one unreachable CDN does not stall downloads from another.
// A nil *HostBreaker lets every call through.
type HostBreaker struct {
	name string
	cfg  CircuitBreakerConfig

	mu       sync.Mutex
	circuits map[string]*circuit
	onChange func(key string, from, to State)
	now      func() time.Time
}

// NewHostBreaker returns nil when cfg is disabled.
func NewHostBreaker(name string, cfg CircuitBreakerConfig) *HostBreaker {
	if !cfg.Enabled {
		return nil
	}
	return &HostBreaker{
		name:     name,
		cfg:      cfg.withDefaults(),
		circuits: make(map[string]*circuit),
		now:      time.Now,
	}
}

func (b *HostBreaker) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// OnStateChange registers fn to run, under the breaker lock, on every
// transition.
func (b *HostBreaker) OnStateChange(fn func(key string, from, to State)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Execute runs fn if the circuit for key allows it and records the result.
// Cancellation is not held against the host.
func (b *HostBreaker) Execute(ctx context.Context, key string, fn func(context.Context) error) error {
	if err := b.acquire(key); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(key, err)
	return err
}

// State reports the circuit for key as the next call would see it.
func (b *HostBreaker) State(key string) State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[key]
	if !ok {
		return StateClosed
	}
	if c.state == StateOpen && b.now().Sub(c.openedAt) >= b.cfg.OpenTimeout {
		return StateHalfOpen
	}
	return c.state
}

func (b *HostBreaker) acquire(key string) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(key)
	if c.state == StateOpen {
		if b.now().Sub(c.openedAt) < b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.transition(key, c, StateHalfOpen)
	}
	if c.state == StateHalfOpen {
		if c.probes >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		c.probes++
	}
	return nil
}

func (b *HostBreaker) record(key string, err error) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(key)
	if c.state == StateHalfOpen && c.probes > 0 {
		c.probes--
	}

	switch {
	case crerr.Is(err, context.Canceled):
		return
	case err == nil:
		switch c.state {
		case StateClosed:
			c.failures = 0
		case StateHalfOpen:
			c.successes++
			if c.successes >= b.cfg.HalfOpenMaxReq && c.probes == 0 {
				b.transition(key, c, StateClosed)
			}
		}
	default:
		switch c.state {
		case StateClosed:
			c.failures++
			if c.failures >= b.cfg.FailureThreshold {
				b.transition(key, c, StateOpen)
			}
		case StateHalfOpen:
			b.transition(key, c, StateOpen)
		case StateOpen:
			c.openedAt = b.now()
		}
	}
}

func (b *HostBreaker) circuitFor(key string) *circuit {
	c, ok := b.circuits[key]
	if !ok {
		c = &circuit{state: StateClosed}
		b.circuits[key] = c
	}
	return c
}

func (b *HostBreaker) transition(key string, c *circuit, to State) {
	from := c.state
	*c = circuit{state: to}
	if to == StateOpen {
		c.openedAt = b.now()
	}
	if b.onChange != nil && from != to {
		b.onChange(key, from, to)
	}
}
