package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockPrefix = "claimswift:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never removes a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements shared.Locker with SET NX PX leases, so every
// instance behind the load balancer serializes on the same keys.
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisLocker wraps an existing client. An empty keyPrefix uses the default.
func NewRedisLocker(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, keyPrefix: keyPrefix, logger: logger}
}

// Acquire takes the lease for key or fails with shared.ErrLockHeld.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, shared.ErrLockHeld
	}

	return func() {
		// The caller's context may already be done by the time it releases.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to release lock; it will expire on its own",
				zap.String("key", fullKey),
				zap.Error(err),
			)
		}
	}, nil
}

// Close closes the Redis client
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

var _ shared.Locker = (*RedisLocker)(nil)
