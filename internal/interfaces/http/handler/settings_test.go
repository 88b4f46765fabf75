package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appsettings "github.com/erp/console/internal/application/settings"
	"github.com/erp/console/internal/domain/integration"
	"github.com/erp/console/internal/infrastructure/kvstore"
	"github.com/erp/console/internal/infrastructure/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubProbes struct {
	backendErr error
}

func (s stubProbes) Backend(_, _ string) integration.Probe {
	return integration.ProbeFunc{ProbeName: integration.ProbeBackend, Fn: func(context.Context) error { return s.backendErr }}
}

func (s stubProbes) AI(string) integration.Probe {
	return integration.ProbeFunc{ProbeName: integration.ProbeAI, Fn: func(context.Context) error { return nil }}
}

func setupSettingsRouter(t *testing.T, backend kvstore.Backend, opts ...appsettings.Option) *gin.Engine {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := kvstore.NewStore(backend, "erp_config_", log)
	svc := appsettings.NewService(store, stubProbes{backendErr: errors.New("unreachable")}, log, opts...)
	h := NewSettingsHandler(svc)

	r := gin.New()
	g := r.Group("/settings")
	g.GET("", h.Get)
	g.PUT("", h.SaveAll)
	g.PUT("/:section", h.SaveSection)
	g.POST("/reset", h.Reset)
	g.GET("/export", h.Export)
	g.POST("/import", h.Import)
	g.GET("/validate", h.Validate)
	g.GET("/status", h.Status)
	g.POST("/test-connections", h.TestConnections)
	g.POST("/backup", h.Backup)
	g.GET("/backups", h.ListBackups)
	g.POST("/restore", h.Restore)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	resp := decodeResponse(t, w)
	require.True(t, resp.Success, w.Body.String())
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestSettingsHandler_Get(t *testing.T) {
	r := setupSettingsRouter(t, kvstore.NewMemoryBackend())

	w := doJSON(r, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, w)
	ai := data["ai"].(map[string]any)
	assert.Equal(t, "gpt-4o-mini", ai["model"])
	assert.EqualValues(t, 1000, ai["max_tokens"])
	security := data["security"].(map[string]any)
	assert.EqualValues(t, 30, security["session_timeout"])
}

func TestSettingsHandler_GetMasksSecrets(t *testing.T) {
	r := setupSettingsRouter(t, kvstore.NewMemoryBackend())
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/settings/ai", `{"api_key":"sk-live-0123456789"}`).Code)
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/settings/backend",
		`{"url":"https://api.example.com","service_key":"svc-abcdefgh1234"}`).Code)

	t.Run("masked by default", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/settings", "")
		require.Equal(t, http.StatusOK, w.Code)

		data := dataMap(t, w)
		assert.Equal(t, "********6789", data["ai"].(map[string]any)["api_key"])
		backend := data["backend"].(map[string]any)
		assert.Equal(t, "********1234", backend["service_key"])
		assert.Equal(t, "https://api.example.com", backend["url"])
		assert.Equal(t, "", backend["public_key"])
	})

	t.Run("reveal one field", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/settings?reveal=ai.api_key", "")
		require.Equal(t, http.StatusOK, w.Code)

		data := dataMap(t, w)
		assert.Equal(t, "sk-live-0123456789", data["ai"].(map[string]any)["api_key"])
		assert.Equal(t, "********1234", data["backend"].(map[string]any)["service_key"])
	})

	t.Run("reveal a list", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/settings?reveal=ai.api_key,backend.service_key", "")
		require.Equal(t, http.StatusOK, w.Code)

		data := dataMap(t, w)
		assert.Equal(t, "sk-live-0123456789", data["ai"].(map[string]any)["api_key"])
		assert.Equal(t, "svc-abcdefgh1234", data["backend"].(map[string]any)["service_key"])
	})

	t.Run("unknown reveal field", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/settings?reveal=ai.colour", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "UNKNOWN_SETTINGS_FIELD", errorCode(t, w))
	})

	t.Run("masked form sent back keeps the key", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/settings/ai", `{"api_key":"********6789","model":"gpt-4o"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(r, http.MethodGet, "/settings?reveal=all", "")
		require.Equal(t, http.StatusOK, w.Code)
		ai := dataMap(t, w)["ai"].(map[string]any)
		assert.Equal(t, "sk-live-0123456789", ai["api_key"])
		assert.Equal(t, "gpt-4o", ai["model"])
	})
}

func TestSettingsHandler_SaveSection(t *testing.T) {
	t.Run("saves fields and returns reloaded settings", func(t *testing.T) {
		backend := kvstore.NewMemoryBackend()
		r := setupSettingsRouter(t, backend)

		w := doJSON(r, http.MethodPut, "/settings/ai", `{"api_key":"sk-test","max_tokens":"2048"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		ai := dataMap(t, w)["ai"].(map[string]any)
		assert.Equal(t, "********", ai["api_key"])
		assert.EqualValues(t, 2048, ai["max_tokens"])

		raw, ok, err := backend.Get(context.Background(), "erp_config_ai_api_key")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "sk-test", raw)
	})

	t.Run("unknown section fails validation", func(t *testing.T) {
		r := setupSettingsRouter(t, kvstore.NewMemoryBackend())

		w := doJSON(r, http.MethodPut, "/settings/billing", `{"x":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
	})

	t.Run("unknown field", func(t *testing.T) {
		r := setupSettingsRouter(t, kvstore.NewMemoryBackend())

		w := doJSON(r, http.MethodPut, "/settings/system", `{"color":"blue"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "UNKNOWN_SETTINGS_FIELD", errorCode(t, w))
	})

	t.Run("value of the wrong type", func(t *testing.T) {
		r := setupSettingsRouter(t, kvstore.NewMemoryBackend())

		w := doJSON(r, http.MethodPut, "/settings/security", `{"max_login_attempts":"many"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "INVALID_SETTING_VALUE", errorCode(t, w))
	})

	t.Run("storage failure maps to 507", func(t *testing.T) {
		r := setupSettingsRouter(t, kvstore.NewMemoryBackend(kvstore.WithQuota(8)))

		w := doJSON(r, http.MethodPut, "/settings/system", `{"company_name":"Acme Ltda"}`)
		assert.Equal(t, http.StatusInsufficientStorage, w.Code)
		assert.Equal(t, "STORAGE_WRITE_FAILED", errorCode(t, w))
	})
}

func TestSettingsHandler_Reset(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	r := setupSettingsRouter(t, backend)
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/settings/system", `{"company_name":"Acme"}`).Code)

	w := doJSON(r, http.MethodPost, "/settings/reset", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_CONFIRMATION_REQUIRED", errorCode(t, w))

	w = doJSON(r, http.MethodPost, "/settings/reset", `{"confirm":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	system := dataMap(t, w)["system"].(map[string]any)
	assert.Equal(t, "ERP Console", system["company_name"])

	keys, err := backend.Keys(context.Background(), "erp_config_")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSettingsHandler_ExportImport(t *testing.T) {
	r := setupSettingsRouter(t, kvstore.NewMemoryBackend())

	w := doJSON(r, http.MethodPost, "/settings/import", `{"backend_url":"https://api.example.com","backend_public_key":"pk"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	backend := dataMap(t, w)["backend"].(map[string]any)
	assert.Equal(t, "https://api.example.com", backend["url"])

	w = doJSON(r, http.MethodGet, "/settings/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{
		"backend_url":        "https://api.example.com",
		"backend_public_key": "********",
	}, dataMap(t, w))

	w = doJSON(r, http.MethodGet, "/settings/export?reveal=all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{
		"backend_url":        "https://api.example.com",
		"backend_public_key": "pk",
	}, dataMap(t, w))

	t.Run("importing a masked export keeps the key", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/settings/import?reveal=backend.public_key",
			`{"backend_url":"https://api.example.com","backend_public_key":"********"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		backend := dataMap(t, w)["backend"].(map[string]any)
		assert.Equal(t, "pk", backend["public_key"])
	})

	t.Run("malformed import", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/settings/import", `[1,2,3]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_FORMAT", errorCode(t, w))
	})
}

func TestSettingsHandler_ValidateAndStatus(t *testing.T) {
	r := setupSettingsRouter(t, kvstore.NewMemoryBackend())

	w := doJSON(r, http.MethodGet, "/settings/validate", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := dataMap(t, w)
	assert.Equal(t, false, res["valid"])
	assert.NotEmpty(t, res["errors"])

	w = doJSON(r, http.MethodGet, "/settings/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	statuses := decodeResponse(t, w).Data.([]any)
	require.Len(t, statuses, 4)
	first := statuses[0].(map[string]any)
	assert.Equal(t, "backend", first["section"])
	assert.Equal(t, false, first["configured"])
}

func TestSettingsHandler_TestConnections(t *testing.T) {
	r := setupSettingsRouter(t, kvstore.NewMemoryBackend())
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/settings/backend",
		`{"url":"https://api.example.com","public_key":"pk"}`).Code)

	w := doJSON(r, http.MethodPost, "/settings/test-connections", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, w)
	assert.Equal(t, map[string]any{"attempted": true, "success": false}, data["backend"])
	assert.Equal(t, map[string]any{"attempted": false, "success": false}, data["ai"])
}

func TestSettingsHandler_Backups(t *testing.T) {
	t.Run("disabled without object storage", func(t *testing.T) {
		r := setupSettingsRouter(t, kvstore.NewMemoryBackend())

		w := doJSON(r, http.MethodPost, "/settings/backup", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "BACKUPS_DISABLED", errorCode(t, w))
	})

	t.Run("backup then restore the latest", func(t *testing.T) {
		objects := storage.NewMemoryObjectStorage()
		r := setupSettingsRouter(t, kvstore.NewMemoryBackend(), appsettings.WithBackups(objects, "backups/"))

		require.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/settings/system", `{"company_name":"Acme"}`).Code)

		w := doJSON(r, http.MethodPost, "/settings/backup", "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		key := dataMap(t, w)["key"].(string)
		assert.True(t, strings.HasPrefix(key, "backups/settings-"))

		w = doJSON(r, http.MethodGet, "/settings/backups", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeResponse(t, w).Data.([]any), 1)

		require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/settings/reset", `{"confirm":true}`).Code)

		w = doJSON(r, http.MethodPost, "/settings/restore", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		system := dataMap(t, w)["system"].(map[string]any)
		assert.Equal(t, "Acme", system["company_name"])
	})
}
