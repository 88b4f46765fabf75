package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envKeys lists every variable the tests touch; viper treats empty values as unset.
var envKeys = []string{
	"CONSOLE_APP_NAME",
	"CONSOLE_APP_ENV",
	"CONSOLE_APP_PORT",
	"CONSOLE_DATABASE_DRIVER",
	"CONSOLE_DATABASE_HOST",
	"CONSOLE_DATABASE_PORT",
	"CONSOLE_DATABASE_SSLMODE",
	"CONSOLE_DATABASE_MAX_OPEN_CONNS",
	"CONSOLE_DATABASE_MAX_IDLE_CONNS",
	"CONSOLE_KVSTORE_DRIVER",
	"CONSOLE_KVSTORE_PREFIX",
	"CONSOLE_PROBE_TIMEOUT",
	"CONSOLE_PROBE_EMAIL_DELAY",
	"CONSOLE_PROBE_WEBHOOK_SUCCESS_RATE",
	"CONSOLE_JWT_SECRET",
	"CONSOLE_AUTH_ENABLED",
	"CONSOLE_AUTH_PASSWORD_HASH",
	"CONSOLE_AUTH_LOCKOUT_STORE",
	"CONSOLE_AUTH_LOCKOUT_WINDOW",
	"CONSOLE_STORAGE_ENABLED",
	"CONSOLE_STORAGE_BUCKET",
	"CONSOLE_HTTP_CORS_ALLOW_ORIGINS",
	"CONSOLE_TELEMETRY_SAMPLING_RATIO",
	"CONSOLE_TELEMETRY_PROFILING_ENABLED",
	"CONSOLE_TELEMETRY_PROFILING_TYPES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-console", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "console.db", cfg.Database.Path)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "database", cfg.KVStore.Driver)
		assert.Equal(t, "erp_config_", cfg.KVStore.Prefix)
		assert.Equal(t, time.Duration(0), cfg.Probe.Timeout)
		assert.Equal(t, 2*time.Second, cfg.Probe.EmailDelay)
		assert.Equal(t, 1500*time.Millisecond, cfg.Probe.WebhookDelay)
		assert.InDelta(t, 0.7, cfg.Probe.WebhookSuccessRate, 1e-9)
		assert.False(t, cfg.Auth.Enabled)
		assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutWindow)
		assert.Equal(t, "memory", cfg.Auth.LockoutStore)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.InDelta(t, 1.0, cfg.Telemetry.SamplingRatio, 1e-9)
		assert.False(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, "http://localhost:4040", cfg.Telemetry.ProfilingServerAddress)
		assert.Empty(t, cfg.Telemetry.ProfilingTypes)
	})

	t.Run("explicit zero values are kept", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_PROBE_WEBHOOK_SUCCESS_RATE", "0")
		t.Setenv("CONSOLE_PROBE_EMAIL_DELAY", "0s")
		t.Setenv("CONSOLE_TELEMETRY_SAMPLING_RATIO", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Zero(t, cfg.Probe.WebhookSuccessRate)
		assert.Zero(t, cfg.Probe.EmailDelay)
		assert.Zero(t, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, 1500*time.Millisecond, cfg.Probe.WebhookDelay)
	})

	t.Run("loads profiling settings", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_TELEMETRY_PROFILING_ENABLED", "true")
		t.Setenv("CONSOLE_TELEMETRY_PROFILING_TYPES", "cpu goroutines")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, []string{"cpu", "goroutines"}, cfg.Telemetry.ProfilingTypes)
	})

	t.Run("loads values from environment variables with CONSOLE prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_APP_NAME", "test-console")
		t.Setenv("CONSOLE_APP_PORT", "9000")
		t.Setenv("CONSOLE_DATABASE_DRIVER", "postgres")
		t.Setenv("CONSOLE_DATABASE_HOST", "testdb.local")
		t.Setenv("CONSOLE_DATABASE_PORT", "5433")
		t.Setenv("CONSOLE_KVSTORE_DRIVER", "redis")
		t.Setenv("CONSOLE_KVSTORE_PREFIX", "acme_")
		t.Setenv("CONSOLE_PROBE_TIMEOUT", "5s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-console", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "redis", cfg.KVStore.Driver)
		assert.Equal(t, "acme_", cfg.KVStore.Prefix)
		assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown kvstore driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_KVSTORE_DRIVER", "localstorage")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kvstore.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("CONSOLE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates webhook success rate range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_PROBE_WEBHOOK_SUCCESS_RATE", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webhook_success_rate")
	})

	t.Run("auth requires password hash and secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_AUTH_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.password_hash")

		t.Setenv("CONSOLE_AUTH_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("lockout window must be positive", func(t *testing.T) {
		for _, window := range []string{"0", "-1m"} {
			clearEnv(t)
			t.Setenv("CONSOLE_AUTH_LOCKOUT_WINDOW", window)

			_, err := Load()
			require.Error(t, err, window)
			assert.Contains(t, err.Error(), "auth.lockout_window")
		}
	})

	t.Run("storage requires bucket when enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSOLE_APP_ENV", "production")
		t.Setenv("CONSOLE_AUTH_ENABLED", "true")
		t.Setenv("CONSOLE_AUTH_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
		t.Setenv("CONSOLE_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires auth in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CONSOLE_AUTH_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.enabled must be true in production")
	})

	t.Run("requires long jwt secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CONSOLE_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires SSL for postgres in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CONSOLE_DATABASE_DRIVER", "postgres")
		t.Setenv("CONSOLE_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects wildcard CORS in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CONSOLE_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
