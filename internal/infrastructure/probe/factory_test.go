package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/console/internal/domain/integration"
	"github.com/erp/console/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFactory(config.ProbeConfig{
		AIBaseURL:          srv.URL,
		Timeout:            3 * time.Second,
		WebhookSuccessRate: 0.7,
	}, WithRandom(func() float64 { return 0.9 }))

	assert.Equal(t, 3*time.Second, f.Timeout())

	t.Run("missing credentials fail as not configured", func(t *testing.T) {
		for _, p := range []integration.Probe{f.Backend("", "key"), f.Backend(srv.URL, ""), f.AI("")} {
			assert.ErrorIs(t, p.Check(context.Background()), integration.ErrNotConfigured, p.Name())
		}
		assert.Equal(t, integration.ProbeBackend, f.Backend("", "").Name())
		assert.Equal(t, integration.ProbeAI, f.AI("").Name())
	})

	t.Run("configured probes reach the server", func(t *testing.T) {
		require.NoError(t, f.Backend(srv.URL, "anon").Check(context.Background()))
		require.NoError(t, f.AI("sk-test").Check(context.Background()))
	})

	t.Run("simulated probes use the configured random source", func(t *testing.T) {
		assert.Equal(t, integration.ProbeEmail, f.Email().Name())
		require.NoError(t, f.Email().Check(context.Background()))
		assert.ErrorIs(t, f.Webhook().Check(context.Background()), ErrSimulatedFailure)
	})
}
