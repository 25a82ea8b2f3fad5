package cache

import (
	"testing"

	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachable points at a port nothing listens on.
var unreachable = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestLockerFactory(t *testing.T) {
	t.Run("no host uses memory", func(t *testing.T) {
		locker, closeFn, err := NewLockerFactory(config.RedisConfig{}).CreateLocker()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLocker{}, locker)
		assert.NoError(t, closeFn())
	})

	t.Run("unreachable falls back", func(t *testing.T) {
		locker, _, err := NewLockerFactory(unreachable, WithLogger(zap.NewNop())).CreateLocker()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLocker{}, locker)
	})

	t.Run("unreachable without fallback fails", func(t *testing.T) {
		_, _, err := NewLockerFactory(unreachable, WithInMemoryFallback(false)).CreateLocker()
		assert.ErrorContains(t, err, "Redis required")
	})
}
