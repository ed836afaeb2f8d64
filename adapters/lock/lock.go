// Package lock serializes writers of shared cluster objects by key.
package lock

import (
	"context"
	"sync"
)

// Locker acquires exclusive ownership of a key. Lock blocks until the key is
// free or ctx is done; the returned func releases it and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RouteKey names the lock guarding the traffic rule of a workload level.
func RouteKey(workloadID, level string) string {
	return "route/" + workloadID + "/" + level
}

// Local is an in-process keyed mutex. Entries are dropped when no goroutine
// holds or waits for them.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocal returns an empty Local locker.
func NewLocal() *Local {
	return &Local{entries: make(map[string]*localEntry)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

var _ Locker = (*Local)(nil)
