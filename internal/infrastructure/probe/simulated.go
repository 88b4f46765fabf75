package probe

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/erp/console/internal/domain/integration"
)

// ErrSimulatedFailure is the failure a simulated probe draws
var ErrSimulatedFailure = errors.New("probe: simulated failure")

// SimulatedProbe waits a fixed delay and then succeeds with a configured
// probability. It demonstrates the panel and is not a health check.
type SimulatedProbe struct {
	name        string
	delay       time.Duration
	successRate float64
	random      func() float64
}

var _ integration.Probe = (*SimulatedProbe)(nil)

// SimulatedOption configures a SimulatedProbe
type SimulatedOption func(*SimulatedProbe)

// WithRandom replaces the random source; it must return values in [0, 1)
func WithRandom(random func() float64) SimulatedOption {
	return func(p *SimulatedProbe) {
		p.random = random
	}
}

// NewSimulatedProbe creates a simulated probe. successRate is clamped to [0, 1].
func NewSimulatedProbe(name string, delay time.Duration, successRate float64, opts ...SimulatedOption) *SimulatedProbe {
	successRate = max(0, min(1, successRate))
	p := &SimulatedProbe{
		name:        name,
		delay:       delay,
		successRate: successRate,
		random:      rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewEmailProbe is the always-successful email channel demo
func NewEmailProbe(delay time.Duration, opts ...SimulatedOption) *SimulatedProbe {
	return NewSimulatedProbe(integration.ProbeEmail, delay, 1, opts...)
}

// NewWebhookProbe is the webhook channel demo that fails at random
func NewWebhookProbe(delay time.Duration, successRate float64, opts ...SimulatedOption) *SimulatedProbe {
	return NewSimulatedProbe(integration.ProbeWebhook, delay, successRate, opts...)
}

// Name implements integration.Probe
func (p *SimulatedProbe) Name() string {
	return p.name
}

// Check implements integration.Probe
func (p *SimulatedProbe) Check(ctx context.Context) error {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if p.random() < p.successRate {
		return nil
	}
	return ErrSimulatedFailure
}
