package locker

import (
	"context"
	"sync"
)

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedLocker is an in-process lock table: callers locking the same key are
// serialized, callers on different keys never wait on each other. Entries are
// dropped once nobody holds or waits for them.
type KeyedLocker struct {
	mutex sync.Mutex
	locks map[int64]*lockEntry
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[int64]*lockEntry),
	}
}

// Lock blocks until key is free or ctx is done. The returned func releases the
// lock and must be called exactly once.
func (k *KeyedLocker) Lock(ctx context.Context, key int64) (func(), error) {
	k.mutex.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = entry
	}
	entry.refs++
	k.mutex.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, entry, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key, entry, true) })
	}, nil
}

func (k *KeyedLocker) release(key int64, entry *lockEntry, held bool) {
	if held {
		<-entry.ch
	}
	k.mutex.Lock()
	defer k.mutex.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *KeyedLocker) size() int {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return len(k.locks)
}
