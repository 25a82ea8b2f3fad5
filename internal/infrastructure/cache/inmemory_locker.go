package cache

import (
	"context"
	"sync"
	"time"

	"github.com/claimswift/backend/internal/domain/shared"
)

type lease struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryLocker implements shared.Locker inside one process.
// WARNING: leases are not shared across instances. Use RedisLocker when more
// than one server handles payments.
type InMemoryLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	next   uint64
	now    func() time.Time
}

// NewInMemoryLocker creates an empty locker.
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

// Acquire takes the lease for key or fails with shared.ErrLockHeld. Expired
// leases are taken over.
func (l *InMemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expiresAt) {
		return nil, shared.ErrLockHeld
	}

	l.next++
	token := l.next
	l.leases[key] = lease{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if held, ok := l.leases[key]; ok && held.token == token {
				delete(l.leases, key)
			}
		})
	}, nil
}

// Len returns the number of tracked leases, expired ones included.
func (l *InMemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.leases)
}

var _ shared.Locker = (*InMemoryLocker)(nil)
