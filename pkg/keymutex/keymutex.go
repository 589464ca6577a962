package keymutex

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyMutex is a set of mutexes indexed by key, unused entries are released
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Lock acquires mutex for key, it gives up when ctx is done
func (km *KeyMutex) Lock(ctx context.Context, key string) error {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		km.entries[key] = e
	}
	e.refs++
	km.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		km.release(key, e)
		return ctx.Err()
	}
}

// Unlock releases mutex for key, it must be called only after successful Lock
func (km *KeyMutex) Unlock(key string) {
	km.mu.Lock()
	e, ok := km.entries[key]
	km.mu.Unlock()
	if !ok {
		panic("keymutex: unlock of unlocked key " + key)
	}

	<-e.ch
	km.release(key, e)
}

func (km *KeyMutex) release(key string, e *entry) {
	km.mu.Lock()
	defer km.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(km.entries, key)
	}
}

// Len returns number of keys currently held or awaited
func (km *KeyMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.entries)
}
