package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/console/internal/infrastructure/auth"
	"github.com/erp/console/internal/infrastructure/config"
	"github.com/erp/console/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "erp-console",
	})
}

func newJWTRouter(jwtService *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(jwtService))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username": GetJWTUsername(c),
			"operator": logger.GetOperator(c.Request.Context()),
		})
	}
	router.GET("/api/v1/settings", handler)
	router.POST("/api/v1/auth/login", handler)
	router.GET("/api/v1/system/ping", handler)
	router.GET("/health", handler)
	return router
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	router := newJWTRouter(jwtService)

	serve := func(path, authHeader string) *httptest.ResponseRecorder {
		method := http.MethodGet
		if path == "/api/v1/auth/login" {
			method = http.MethodPost
		}
		req := httptest.NewRequest(method, path, nil)
		if authHeader != "" {
			req.Header.Set(AuthHeaderKey, authHeader)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token exposes the operator", func(t *testing.T) {
		token, err := jwtService.GenerateToken("admin", 30*time.Minute)
		require.NoError(t, err)

		w := serve("/api/v1/settings", BearerPrefix+token.AccessToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"username":"admin","operator":"admin"}`, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve("/api/v1/settings", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := serve("/api/v1/settings", "Basic YWRtaW46YWRtaW4=")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := serve("/api/v1/settings", BearerPrefix+"not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-chars!!", Issuer: "erp-console"})
		token, err := other.GenerateToken("admin", time.Minute)
		require.NoError(t, err)

		w := serve("/api/v1/settings", BearerPrefix+token.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("public paths skip authentication", func(t *testing.T) {
		for _, path := range []string{"/api/v1/auth/login", "/api/v1/system/ping", "/health"} {
			assert.Equal(t, http.StatusOK, serve(path, "").Code, path)
		}
	})
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUsername(c))
}
