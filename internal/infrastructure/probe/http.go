// Package probe implements the reachability probes used by the settings
// screen and the integration test panel.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/erp/console/internal/domain/integration"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUnexpectedStatus is returned when the service answers with anything but 200
var ErrUnexpectedStatus = errors.New("probe: unexpected status")

// NewHTTPClient returns the client probes share. A zero timeout means the
// request may hang until its context is cancelled.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// HTTPProbe performs a single GET and succeeds only on HTTP 200.
// There is no retry.
type HTTPProbe struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
}

var _ integration.Probe = (*HTTPProbe)(nil)

// NewBackendProbe checks the backend-as-a-service REST endpoint using the
// public key in both the apikey and bearer headers
func NewBackendProbe(baseURL, publicKey string, client *http.Client) *HTTPProbe {
	return &HTTPProbe{
		name: integration.ProbeBackend,
		url:  strings.TrimRight(baseURL, "/") + "/rest/v1/",
		headers: map[string]string{
			"apikey":        publicKey,
			"Authorization": "Bearer " + publicKey,
		},
		client: client,
	}
}

// NewAIProbe checks the AI provider's model listing with a bearer token
func NewAIProbe(baseURL, apiKey string, client *http.Client) *HTTPProbe {
	return &HTTPProbe{
		name: integration.ProbeAI,
		url:  strings.TrimRight(baseURL, "/") + "/v1/models",
		headers: map[string]string{
			"Authorization": "Bearer " + apiKey,
		},
		client: client,
	}
}

// Name implements integration.Probe
func (p *HTTPProbe) Name() string {
	return p.name
}

// URL returns the probed endpoint
func (p *HTTPProbe) URL() string {
	return p.url
}

// Check implements integration.Probe
func (p *HTTPProbe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	client := p.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
