package integration

import (
	"context"
	"time"

	"github.com/erp/console/internal/domain/shared"
)

// Probe is a one-shot check of whether a configured external service is
// reachable. A nil error means success; the error is never shown to users.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// ProbeFunc adapts a function to the Probe interface
type ProbeFunc struct {
	ProbeName string
	Fn        func(ctx context.Context) error
}

// Name implements Probe
func (p ProbeFunc) Name() string { return p.ProbeName }

// Check implements Probe
func (p ProbeFunc) Check(ctx context.Context) error { return p.Fn(ctx) }

// Probe names used by the integration test panel
const (
	ProbeBackend = "backend"
	ProbeAI      = "ai"
	ProbeEmail   = "email"
	ProbeWebhook = "webhook"
)

// ProbeNames lists the panel probes in display order
var ProbeNames = []string{ProbeBackend, ProbeAI, ProbeEmail, ProbeWebhook}

// State is the status of one probe
type State string

const (
	StateIdle    State = "idle"
	StateTesting State = "testing"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// IsFinal reports whether the state ends a run
func (s State) IsFinal() bool {
	return s == StateSuccess || s == StateFailure
}

// ProbeStatus is the panel's view of one probe
type ProbeStatus struct {
	Name       string     `json:"name"`
	State      State      `json:"state"`
	Runs       int64      `json:"runs"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Errors
var (
	ErrUnknownProbe  = shared.NewDomainError("PROBE_NOT_FOUND", "Unknown probe")
	ErrNotConfigured = shared.NewDomainError("PROBE_NOT_CONFIGURED", "Probe credentials are not configured")
)
