package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	appintegration "github.com/erp/console/internal/application/integration"
	"github.com/erp/console/internal/domain/integration"
	"github.com/erp/console/internal/domain/settings"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// panelProbes fails the probes named in fail and blocks on gate when set
type panelProbes struct {
	fail map[string]bool
	gate chan struct{}
}

func (p panelProbes) probe(name string) integration.Probe {
	return integration.ProbeFunc{ProbeName: name, Fn: func(ctx context.Context) error {
		if p.gate != nil {
			select {
			case <-p.gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if p.fail[name] {
			return errors.New("unreachable")
		}
		return nil
	}}
}

func (p panelProbes) Backend(_, _ string) integration.Probe { return p.probe(integration.ProbeBackend) }
func (p panelProbes) AI(string) integration.Probe           { return p.probe(integration.ProbeAI) }
func (p panelProbes) Email() integration.Probe              { return p.probe(integration.ProbeEmail) }
func (p panelProbes) Webhook() integration.Probe            { return p.probe(integration.ProbeWebhook) }

func setupIntegrationRouter(t *testing.T, probes panelProbes) *gin.Engine {
	t.Helper()
	panel := appintegration.NewPanel(staticPolicy{s: settings.Defaults()}, probes, zaptest.NewLogger(t),
		appintegration.WithTimeout(5*time.Second))
	h := NewIntegrationHandler(panel)

	r := gin.New()
	r.GET("/integrations/probes", h.ListProbes)
	r.POST("/integrations/probes/run", h.RunAll)
	r.POST("/integrations/probes/:name/run", h.Run)
	return r
}

func probeStates(t *testing.T, data any) map[string]string {
	t.Helper()
	list, ok := data.([]any)
	require.True(t, ok, "data is %T", data)
	out := make(map[string]string, len(list))
	for _, item := range list {
		m := item.(map[string]any)
		out[m["name"].(string)] = m["state"].(string)
	}
	return out
}

func TestIntegrationHandler_ListProbes(t *testing.T) {
	r := setupIntegrationRouter(t, panelProbes{})

	w := doJSON(r, http.MethodGet, "/integrations/probes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{
		"backend": "idle",
		"ai":      "idle",
		"email":   "idle",
		"webhook": "idle",
	}, probeStates(t, decodeResponse(t, w).Data))
}

func TestIntegrationHandler_RunAll(t *testing.T) {
	r := setupIntegrationRouter(t, panelProbes{fail: map[string]bool{"webhook": true}})

	w := doJSON(r, http.MethodPost, "/integrations/probes/run", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]string{
		"backend": "success",
		"ai":      "success",
		"email":   "success",
		"webhook": "failure",
	}, probeStates(t, decodeResponse(t, w).Data))
}

func TestIntegrationHandler_Run(t *testing.T) {
	t.Run("runs one probe", func(t *testing.T) {
		r := setupIntegrationRouter(t, panelProbes{fail: map[string]bool{"ai": true}})

		w := doJSON(r, http.MethodPost, "/integrations/probes/ai/run", "")
		require.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, w)
		assert.Equal(t, "ai", data["name"])
		assert.Equal(t, "failure", data["state"])
		assert.EqualValues(t, 1, data["runs"])
	})

	t.Run("unknown probe", func(t *testing.T) {
		r := setupIntegrationRouter(t, panelProbes{})

		w := doJSON(r, http.MethodPost, "/integrations/probes/sms/run", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "PROBE_NOT_FOUND", errorCode(t, w))
	})

	t.Run("async run reports testing until the probe finishes", func(t *testing.T) {
		gate := make(chan struct{})
		r := setupIntegrationRouter(t, panelProbes{gate: gate})

		w := doJSON(r, http.MethodPost, "/integrations/probes/email/run?async=true", "")
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		assert.Equal(t, "testing", dataMap(t, w)["state"])

		close(gate)
		assert.Eventually(t, func() bool {
			w := doJSON(r, http.MethodGet, "/integrations/probes", "")
			return probeStates(t, decodeResponse(t, w).Data)["email"] == "success"
		}, 2*time.Second, 10*time.Millisecond)
	})
}
