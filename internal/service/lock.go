package service

import "sync"

// keyedMutex serializes work per document ID. Entries are reference counted
// and removed once the last holder releases, so the map stays bounded by the
// number of documents with in-flight appends.
type keyedMutex struct {
	mu   sync.Mutex
	held map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{held: make(map[int64]*lockEntry)}
}

// Lock blocks until the per-key mutex is held and returns the release func.
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	e := k.held[key]
	if e == nil {
		e = &lockEntry{}
		k.held[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}
