package kvstore

import (
	"fmt"
	"io"

	"github.com/erp/console/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Factory creates the backend selected by configuration
type Factory struct {
	cfg      config.KVStoreConfig
	redisCfg config.RedisConfig
	db       *gorm.DB
	logger   *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithDatabase supplies the connection used by the database driver
func WithDatabase(db *gorm.DB) FactoryOption {
	return func(f *Factory) {
		f.db = db
	}
}

// WithRedis supplies the connection settings used by the redis driver
func WithRedis(cfg config.RedisConfig) FactoryOption {
	return func(f *Factory) {
		f.redisCfg = cfg
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.KVStoreConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateBackend creates the configured backend. The returned closer releases
// any connection the backend owns and is never nil.
func (f *Factory) CreateBackend() (Backend, io.Closer, error) {
	switch f.cfg.Driver {
	case "memory":
		f.logger.Warn("using in-memory configuration store; settings are lost on restart")
		return NewMemoryBackend(WithQuota(f.cfg.QuotaBytes)), nopCloser{}, nil
	case "", "database":
		if f.db == nil {
			return nil, nil, fmt.Errorf("kvstore driver %q needs a database connection", "database")
		}
		return NewGormBackend(f.db), nopCloser{}, nil
	case "redis":
		b, err := NewRedisBackend(f.redisCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis configuration store: %w", err)
		}
		f.logger.Info("using Redis configuration store", zap.String("addr", f.redisCfg.Addr()))
		return b, b, nil
	}
	return nil, nil, fmt.Errorf("unknown kvstore driver %q", f.cfg.Driver)
}

// CreateStore creates a Store over the configured backend
func (f *Factory) CreateStore() (*Store, io.Closer, error) {
	backend, closer, err := f.CreateBackend()
	if err != nil {
		return nil, nil, err
	}
	return NewStore(backend, f.cfg.Prefix, f.logger), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
