package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rbritto/stockflow/internal/domain/product"
)

// keyLocks hands out one exclusive slot per key with a bounded wait.
// Different keys never block each other.
type keyLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyLocks() *keyLocks {
	return &keyLocks{slots: make(map[string]chan struct{})}
}

func (k *keyLocks) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		k.slots[key] = s
	}
	return s
}

// acquire blocks until the slot is free, the timeout elapses or the context is
// canceled. Timeout surfaces as ErrLockContention so callers can distinguish
// "system busy" from business failures.
func (k *keyLocks) acquire(ctx context.Context, key string, timeout time.Duration) (release func(), err error) {
	s := k.slot(key)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-s })
		}, nil
	case <-timer.C:
		return nil, product.ErrLockContention
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
