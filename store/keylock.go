package store

import (
	"context"
	"sync"
)

// KeyLock is a lock table keyed by entity ID. Compound read-modify-write
// sequences (connection-set updates) acquire the key before reading and
// release after the write lands; concurrent requests for the same key
// queue behind the in-flight one. Unrelated keys never contend.
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{} // capacity 1; holding the token is holding the lock
	refs int           // holders + waiters; entry is pruned at zero
}

// NewKeyLock creates an empty lock table.
func NewKeyLock() *KeyLock {
	return &KeyLock{entries: make(map[string]*lockEntry)}
}

// Acquire blocks until the key's lock is held or ctx is done.
func (l *KeyLock) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, e)
		return ctx.Err()
	}
}

// Release releases a held key. Releasing a key that is not held is a
// programming error and panics, matching sync.Mutex behavior.
func (l *KeyLock) Release(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	l.mu.Unlock()
	if !ok {
		panic("store: release of unheld key " + key)
	}

	select {
	case <-e.sem:
	default:
		panic("store: release of unheld key " + key)
	}
	l.unref(key, e)
}

// WithLock runs fn while holding the key.
func (l *KeyLock) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := l.Acquire(ctx, key); err != nil {
		return err
	}
	defer l.Release(key)
	return fn()
}

func (l *KeyLock) unref(key string, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs <= 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
