package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/console/internal/domain/integration"
	"github.com/erp/console/internal/infrastructure/config"
)

// Factory builds probes from credentials supplied at run time, so a probe
// always checks the settings as they are when it runs.
type Factory struct {
	client       *http.Client
	aiBaseURL    string
	timeout      time.Duration
	emailDelay   time.Duration
	webhookDelay time.Duration
	webhookRate  float64
	simOpts      []SimulatedOption
}

// NewFactory creates a probe factory from the probe configuration.
// opts apply to the simulated probes.
func NewFactory(cfg config.ProbeConfig, opts ...SimulatedOption) *Factory {
	return &Factory{
		client:       NewHTTPClient(cfg.Timeout),
		aiBaseURL:    cfg.AIBaseURL,
		timeout:      cfg.Timeout,
		emailDelay:   cfg.EmailDelay,
		webhookDelay: cfg.WebhookDelay,
		webhookRate:  cfg.WebhookSuccessRate,
		simOpts:      opts,
	}
}

// Timeout returns the configured per-run timeout, 0 meaning none
func (f *Factory) Timeout() time.Duration {
	return f.timeout
}

// Backend returns the backend probe, or a probe failing with
// integration.ErrNotConfigured when url or publicKey is empty
func (f *Factory) Backend(url, publicKey string) integration.Probe {
	if url == "" || publicKey == "" {
		return notConfigured(integration.ProbeBackend)
	}
	return NewBackendProbe(url, publicKey, f.client)
}

// AI returns the AI provider probe, or a probe failing with
// integration.ErrNotConfigured when apiKey is empty
func (f *Factory) AI(apiKey string) integration.Probe {
	if apiKey == "" {
		return notConfigured(integration.ProbeAI)
	}
	return NewAIProbe(f.aiBaseURL, apiKey, f.client)
}

// Email returns the simulated email channel probe
func (f *Factory) Email() integration.Probe {
	return NewEmailProbe(f.emailDelay, f.simOpts...)
}

// Webhook returns the simulated webhook channel probe
func (f *Factory) Webhook() integration.Probe {
	return NewWebhookProbe(f.webhookDelay, f.webhookRate, f.simOpts...)
}

func notConfigured(name string) integration.Probe {
	return integration.ProbeFunc{
		ProbeName: name,
		Fn: func(context.Context) error {
			return integration.ErrNotConfigured
		},
	}
}
