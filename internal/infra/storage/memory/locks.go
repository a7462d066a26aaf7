package memory

import (
	"context"
	"sync"

	"albergo/internal/app/policies"
)

// Locks is a process-local reservation lock manager. Good enough for a
// single instance and for exercising the serialization contract in tests.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

func (l *Locks) Acquire(ctx context.Context, listingID string) (policies.ReleaseFunc, error) {
	l.mu.Lock()
	m, ok := l.locks[listingID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[listingID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func(context.Context) { m.Unlock() }, nil
}
