package cache

import (
	"fmt"

	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LockerFactory picks the lease backend from configuration.
type LockerFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// LockerFactoryOption is a functional option for configuring the factory
type LockerFactoryOption func(*LockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-process locker. Default is true.
func WithInMemoryFallback(allow bool) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLockerFactory creates a new factory
func NewLockerFactory(cfg config.RedisConfig, opts ...LockerFactoryOption) *LockerFactory {
	f := &LockerFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLocker returns a RedisLocker when a Redis host is configured and
// reachable, otherwise an InMemoryLocker. The returned close func is never nil.
func (f *LockerFactory) CreateLocker() (shared.Locker, func() error, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("no Redis host configured, using in-memory payment locks")
		return NewInMemoryLocker(), func() error { return nil }, nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis payment locks", zap.String("addr", f.redisConfig.Addr()))
		locker := NewRedisLocker(client, "", f.logger)
		return locker, locker.Close, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("Redis required for payment locks but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory payment locks. "+
		"Concurrent initiations on different instances are then only stopped by the unique claim index.",
		zap.Error(err),
	)
	return NewInMemoryLocker(), func() error { return nil }, nil
}
