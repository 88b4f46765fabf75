// Package integration runs the integration test panel: four one-shot
// probes whose state is tracked independently.
package integration

import (
	"context"
	"sync"
	"time"

	"github.com/erp/console/internal/domain/integration"
	"github.com/erp/console/internal/domain/settings"
	"github.com/erp/console/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SettingsSource provides the current settings
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// ProbeFactory builds the panel probes
type ProbeFactory interface {
	Backend(url, publicKey string) integration.Probe
	AI(apiKey string) integration.Probe
	Email() integration.Probe
	Webhook() integration.Probe
}

type probeState struct {
	status     integration.ProbeStatus
	generation uint64
}

// Panel tracks per-probe state. Probes are built from the settings as they
// are when a run starts. When runs of the same probe overlap, the newest
// run owns the state and older results are dropped.
type Panel struct {
	source  SettingsSource
	probes  ProbeFactory
	timeout time.Duration
	metrics *telemetry.ConsoleMetrics
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.RWMutex
	states map[string]*probeState
}

// PanelOption configures a Panel
type PanelOption func(*Panel)

// WithTimeout bounds every probe run; zero means no timeout
func WithTimeout(d time.Duration) PanelOption {
	return func(p *Panel) {
		p.timeout = d
	}
}

// WithMetrics records probe outcomes
func WithMetrics(m *telemetry.ConsoleMetrics) PanelOption {
	return func(p *Panel) {
		p.metrics = m
	}
}

// NewPanel creates a panel with every probe idle
func NewPanel(source SettingsSource, probes ProbeFactory, logger *zap.Logger, opts ...PanelOption) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Panel{
		source: source,
		probes: probes,
		logger: logger.Named("integration_panel"),
		now:    time.Now,
		states: make(map[string]*probeState, len(integration.ProbeNames)),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, name := range integration.ProbeNames {
		p.states[name] = &probeState{status: integration.ProbeStatus{Name: name, State: integration.StateIdle}}
	}
	return p
}

// Statuses returns every probe status in display order
func (p *Panel) Statuses() []integration.ProbeStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]integration.ProbeStatus, 0, len(integration.ProbeNames))
	for _, name := range integration.ProbeNames {
		out = append(out, p.states[name].status)
	}
	return out
}

// Status returns the status of one probe
func (p *Panel) Status(name string) (integration.ProbeStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.states[name]
	if !ok {
		return integration.ProbeStatus{}, integration.ErrUnknownProbe
	}
	return st.status, nil
}

// Run runs one probe and waits for it. It may be called while other runs,
// including runs of the same probe, are in flight.
func (p *Panel) Run(ctx context.Context, name string) (integration.ProbeStatus, error) {
	probes, err := p.build(ctx, name)
	if err != nil {
		return integration.ProbeStatus{}, err
	}
	return p.run(ctx, probes[0]), nil
}

// Start begins a run of one probe in the background and returns at once.
// The run outlives ctx cancellation.
func (p *Panel) Start(ctx context.Context, name string) error {
	probes, err := p.build(ctx, name)
	if err != nil {
		return err
	}
	p.startAll(ctx, probes)
	return nil
}

// RunAll runs every probe concurrently and waits for all of them
func (p *Panel) RunAll(ctx context.Context) ([]integration.ProbeStatus, error) {
	probes, err := p.build(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, pr := range probes {
		g.Go(func() error {
			p.run(gctx, pr)
			return nil
		})
	}
	_ = g.Wait()
	return p.Statuses(), nil
}

// StartAll begins a run of every probe in the background
func (p *Panel) StartAll(ctx context.Context) error {
	probes, err := p.build(ctx)
	if err != nil {
		return err
	}
	p.startAll(ctx, probes)
	return nil
}

func (p *Panel) startAll(ctx context.Context, probes []integration.Probe) {
	detached := context.WithoutCancel(ctx)
	for _, pr := range probes {
		gen := p.begin(pr.Name())
		go p.finishRun(detached, pr, gen)
	}
}

// build creates the named probes, or all of them when names is empty
func (p *Panel) build(ctx context.Context, names ...string) ([]integration.Probe, error) {
	if len(names) == 0 {
		names = integration.ProbeNames
	}
	for _, name := range names {
		if _, ok := p.states[name]; !ok {
			return nil, integration.ErrUnknownProbe
		}
	}

	current, err := p.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]integration.Probe, 0, len(names))
	for _, name := range names {
		switch name {
		case integration.ProbeBackend:
			out = append(out, p.probes.Backend(current.Backend.URL, current.Backend.PublicKey))
		case integration.ProbeAI:
			out = append(out, p.probes.AI(current.AI.APIKey))
		case integration.ProbeEmail:
			out = append(out, p.probes.Email())
		case integration.ProbeWebhook:
			out = append(out, p.probes.Webhook())
		}
	}
	return out, nil
}

func (p *Panel) run(ctx context.Context, pr integration.Probe) integration.ProbeStatus {
	gen := p.begin(pr.Name())
	return p.finishRun(ctx, pr, gen)
}

func (p *Panel) finishRun(ctx context.Context, pr integration.Probe, gen uint64) integration.ProbeStatus {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	err := pr.Check(ctx)
	p.metrics.RecordProbe(ctx, pr.Name(), err == nil, time.Since(start))
	if err != nil {
		p.logger.Debug("probe failed", zap.String("probe", pr.Name()), zap.Error(err))
	}
	return p.finish(pr.Name(), gen, err == nil)
}

func (p *Panel) begin(name string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.states[name]
	st.generation++
	started := p.now()
	st.status = integration.ProbeStatus{
		Name:      name,
		State:     integration.StateTesting,
		Runs:      st.status.Runs + 1,
		StartedAt: &started,
	}
	return st.generation
}

func (p *Panel) finish(name string, gen uint64, ok bool) integration.ProbeStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.states[name]
	if st.generation != gen {
		p.logger.Debug("dropping superseded probe result", zap.String("probe", name))
		return st.status
	}
	finished := p.now()
	st.status.FinishedAt = &finished
	st.status.State = integration.StateFailure
	if ok {
		st.status.State = integration.StateSuccess
	}
	return st.status
}
