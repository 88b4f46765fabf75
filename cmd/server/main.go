package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/console/internal/application/identity"
	appintegration "github.com/erp/console/internal/application/integration"
	"github.com/erp/console/internal/application/organization"
	appsettings "github.com/erp/console/internal/application/settings"
	"github.com/erp/console/internal/infrastructure/auth"
	"github.com/erp/console/internal/infrastructure/config"
	"github.com/erp/console/internal/infrastructure/kvstore"
	"github.com/erp/console/internal/infrastructure/logger"
	"github.com/erp/console/internal/infrastructure/migration"
	"github.com/erp/console/internal/infrastructure/persistence"
	"github.com/erp/console/internal/infrastructure/probe"
	"github.com/erp/console/internal/infrastructure/storage"
	"github.com/erp/console/internal/infrastructure/telemetry"
	"github.com/erp/console/internal/interfaces/http/handler"
	"github.com/erp/console/internal/interfaces/http/middleware"
	"github.com/erp/console/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	tel := setupTelemetry(ctx, cfg, log)
	log = tel.logger
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ERP Console",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	db := openDatabase(cfg, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	audit := logger.NewAudit(log)
	consoleMetrics := tel.consoleMetrics(log)

	// Configuration store
	store, storeCloser, err := kvstore.NewFactory(cfg.KVStore,
		kvstore.WithLogger(log),
		kvstore.WithDatabase(db.DB),
		kvstore.WithRedis(cfg.Redis),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create configuration store", zap.Error(err))
	}
	defer closeQuietly(log, "configuration store", storeCloser)
	log.Info("Configuration store ready",
		zap.String("driver", cfg.KVStore.Driver),
		zap.String("prefix", store.Prefix()))

	probes := probe.NewFactory(cfg.Probe)

	settingsOpts := []appsettings.Option{
		appsettings.WithAudit(audit),
		appsettings.WithMetrics(consoleMetrics),
	}
	if backups := newBackupStorage(cfg, log); backups != nil {
		settingsOpts = append(settingsOpts, appsettings.WithBackups(backups, cfg.Storage.BackupPrefix))
	}
	settingsService := appsettings.NewService(store, probes, log, settingsOpts...)

	panel := appintegration.NewPanel(settingsService, probes, log,
		appintegration.WithTimeout(cfg.Probe.Timeout),
		appintegration.WithMetrics(consoleMetrics),
	)

	organizationService := organization.NewService(
		persistence.NewGormCompanyRepository(db.DB),
		persistence.NewGormBranchRepository(db.DB),
		persistence.NewGormMembershipRepository(db.DB),
		persistence.NewGormLedgerReader(db.DB),
		audit,
		log,
	)

	// Operator authentication; tokens are only enforced when auth is enabled
	jwtService := auth.NewJWTService(cfg.JWT)
	attempts, attemptsCloser := newAttemptTracker(cfg, log)
	defer closeQuietly(log, "login attempt tracker", attemptsCloser)
	authService := identity.NewAuthService(cfg.Auth, jwtService, attempts, settingsService, audit, log)
	if !cfg.Auth.Enabled {
		log.Warn("Operator authentication disabled; the API is open")
		jwtService = nil
	}

	handlers := router.Handlers{
		Settings:     handler.NewSettingsHandler(settingsService),
		Integration:  handler.NewIntegrationHandler(panel),
		Organization: handler.NewOrganizationHandler(organizationService),
		Auth:         handler.NewAuthHandler(authService),
	}
	handlers.System = handler.NewSystemHandler(Version, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
		"kvstore": func(ctx context.Context) error {
			_, err := store.Load(ctx, "system_company_name", nil)
			return err
		},
	})

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(router.Options{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:     tel.meter,
		Profiling: tel.profiling(),
		JWT:       jwtService,
	}, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	tel.shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

// openDatabase connects, registers query tracing and brings the schema up
// to date: embedded migrations on postgres, AutoMigrate on sqlite
func openDatabase(cfg *config.Config, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	tracing.DBSystem = telemetry.DBSystemFor(cfg.Database.Driver)
	if err := telemetry.NewDBTracingPlugin(tracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	if !cfg.Database.AutoMigrate && db.Driver() != "sqlite" {
		return db
	}
	if db.Driver() == "postgres" {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get database handle", zap.Error(err))
		}
		m, err := migration.New(sqlDB, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		return db
	}
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	return db
}

// newBackupStorage returns S3 storage when a bucket is configured, memory
// storage outside production, and nil otherwise
func newBackupStorage(cfg *config.Config, log *zap.Logger) storage.ObjectStorage {
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
		if err != nil {
			log.Fatal("Failed to create backup storage", zap.Error(err))
		}
		log.Info("Settings backups stored in S3", zap.String("bucket", cfg.Storage.Bucket))
		return s3
	}
	if cfg.App.Env == "production" {
		log.Info("Settings backups disabled")
		return nil
	}
	log.Warn("Settings backups kept in memory; they are lost on restart")
	return storage.NewMemoryObjectStorage()
}

func newAttemptTracker(cfg *config.Config, log *zap.Logger) (auth.AttemptTracker, io.Closer) {
	if cfg.Auth.LockoutStore == "redis" {
		tracker, err := auth.NewRedisAttemptTracker(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to create login attempt tracker", zap.Error(err))
		}
		return tracker, tracker
	}
	return auth.NewInMemoryAttemptTracker(), nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func closeQuietly(log *zap.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("Failed to close "+name, zap.Error(err))
	}
}

// telemetryStack holds the OpenTelemetry providers of the process
type telemetryStack struct {
	logger   *zap.Logger
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) *telemetryStack {
	t := &telemetryStack{logger: log}
	tc := cfg.Telemetry

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	} else {
		t.tracer = tp
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Metrics disabled", zap.Error(err))
	} else {
		t.meter = mp
	}

	if tc.Enabled && tc.LogsEnabled {
		lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
			Enabled:           true,
			CollectorEndpoint: tc.CollectorEndpoint,
			ServiceName:       tc.ServiceName,
			Insecure:          tc.Insecure,
		}, log)
		if err != nil {
			log.Warn("Log export disabled", zap.Error(err))
		} else {
			t.logs = lp
			otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
				ServiceName:    tc.ServiceName,
				LoggerProvider: lp,
				Level:          logger.ParseLevel(cfg.Log.Level),
			})
			t.logger = telemetry.NewBridgedLogger(log.Core(), otelCore,
				zap.AddCaller(),
				zap.AddStacktrace(zapcore.ErrorLevel))
		}
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           tc.ProfilingEnabled,
		ServerAddress:     tc.ProfilingServerAddress,
		ApplicationName:   tc.ServiceName,
		BasicAuthUser:     tc.ProfilingBasicAuthUser,
		BasicAuthPassword: tc.ProfilingBasicAuthPassword,
		ProfileTypes:      tc.ProfilingTypes,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", zap.Error(err))
	} else {
		t.profiler = profiler
		if profiler.IsEnabled() && tc.ProfilingSpanProfiles && t.tracer != nil {
			t.tracer.EnableSpanProfiles()
		}
	}
	return t
}

func (t *telemetryStack) profiling() bool {
	return t.profiler != nil && t.profiler.IsEnabled()
}

// consoleMetrics returns nil when metrics are off; recording on nil is a no-op
func (t *telemetryStack) consoleMetrics(log *zap.Logger) *telemetry.ConsoleMetrics {
	if t.meter == nil || !t.meter.IsEnabled() {
		return nil
	}
	m, err := telemetry.NewConsoleMetrics(telemetry.ConsoleMetricsConfig{
		Meter:  t.meter.Meter("erp-console"),
		Logger: log,
	})
	if err != nil {
		log.Warn("Console metrics disabled", zap.Error(err))
		return nil
	}
	return m
}

func (t *telemetryStack) shutdown(ctx context.Context) {
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			t.logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	if t.meter != nil {
		if err := t.meter.Shutdown(ctx); err != nil {
			t.logger.Warn("Meter shutdown failed", zap.Error(err))
		}
	}
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			t.logger.Warn("Profiler stop failed", zap.Error(err))
		}
	}
	if t.logs != nil {
		if err := t.logs.Shutdown(ctx); err != nil {
			t.logger.Warn("Log exporter shutdown failed", zap.Error(err))
		}
	}
}
