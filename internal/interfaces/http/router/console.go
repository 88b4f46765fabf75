package router

import (
	"time"

	"github.com/erp/console/internal/infrastructure/auth"
	"github.com/erp/console/internal/infrastructure/config"
	"github.com/erp/console/internal/infrastructure/logger"
	"github.com/erp/console/internal/infrastructure/telemetry"
	"github.com/erp/console/internal/interfaces/http/handler"
	"github.com/erp/console/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Login attempts allowed per client IP and window
const (
	LoginRateLimit       = 10
	LoginRateLimitWindow = time.Minute
)

// Handlers bundles the console API handlers
type Handlers struct {
	Settings     *handler.SettingsHandler
	Integration  *handler.IntegrationHandler
	Organization *handler.OrganizationHandler
	Auth         *handler.AuthHandler
	System       *handler.SystemHandler
}

// Options controls the middleware chain of the engine
type Options struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	Meter   *telemetry.MeterProvider
	// Profiling adds pprof labels per route for the Pyroscope profiler
	Profiling bool
	// JWT protects the API when set; nil leaves it open
	JWT *auth.JWTService
}

// NewEngine builds the console engine with its global middleware, /health
// and every /api/v1 route
func NewEngine(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(opts.Meter))
	if opts.Profiling {
		engine.Use(middleware.Profiling())
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	if opts.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(opts.HTTP.RateLimitRequests, opts.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", opts.HTTP.RateLimitRequests),
			zap.Duration("window", opts.HTTP.RateLimitWindow))
	}

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	if opts.JWT != nil {
		jwtConfig := middleware.DefaultJWTConfig(opts.JWT)
		jwtConfig.Logger = log
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	} else {
		log.Warn("Authentication disabled; the API is open")
	}
	r.Use(middleware.TracingAttributeInjector())

	for _, g := range Groups(h) {
		r.Register(g)
	}
	r.Setup()
	return engine
}

// Groups returns the console route groups
func Groups(h Handlers) []*DomainGroup {
	settings := NewDomainGroup("settings", "/settings")
	settings.GET("", h.Settings.Get)
	settings.PUT("", h.Settings.SaveAll)
	settings.POST("/reset", h.Settings.Reset)
	settings.GET("/export", h.Settings.Export)
	settings.POST("/import", h.Settings.Import)
	settings.GET("/validate", h.Settings.Validate)
	settings.GET("/status", h.Settings.Status)
	settings.POST("/test-connections", h.Settings.TestConnections)
	settings.POST("/backup", h.Settings.Backup)
	settings.GET("/backups", h.Settings.ListBackups)
	settings.POST("/restore", h.Settings.Restore)
	settings.PUT("/:section", h.Settings.SaveSection)

	integrations := NewDomainGroup("integrations", "/integrations")
	integrations.GET("/probes", h.Integration.ListProbes)
	integrations.POST("/probes/run", h.Integration.RunAll)
	integrations.POST("/probes/:name/run", h.Integration.Run)

	org := NewDomainGroup("organization", "/organization")
	companies := org.Group("companies", "/companies")
	companies.GET("", h.Organization.ListCompanies)
	companies.POST("", h.Organization.CreateCompany)
	companies.GET("/:id", h.Organization.GetCompany)
	companies.PUT("/:id", h.Organization.UpdateCompany)
	companies.GET("/:id/branches", h.Organization.ListBranches)
	companies.POST("/:id/branches", h.Organization.CreateBranch)
	companies.GET("/:id/branches/next-code", h.Organization.NextBranchCode)
	companies.GET("/:id/memberships", h.Organization.ListMemberships)
	companies.POST("/:id/memberships", h.Organization.CreateMembership)
	branches := org.Group("branches", "/branches")
	branches.GET("/:id", h.Organization.GetBranch)
	branches.PUT("/:id", h.Organization.UpdateBranch)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login",
		middleware.RateLimit(middleware.NewRateLimiter(LoginRateLimit, LoginRateLimitWindow)),
		h.Auth.Login)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	return []*DomainGroup{settings, integrations, org, authRoutes, system}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
