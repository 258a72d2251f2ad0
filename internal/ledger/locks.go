package ledger

import (
	"sort"
	"sync"
)

// keyedMutex serializes mutating operations per aggregate root (group).
// Entries are reference-counted and dropped when the last holder releases,
// so the map stays bounded by the number of groups under concurrent write.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

// lock acquires the mutexes for all keys in sorted order (dedup'd), which
// keeps multi-group operations deadlock-free, and returns the release
// function. Locking no keys is allowed and returns a no-op release.
func (km *keyedMutex) lock(keys []string) func() {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	entries := make([]*lockEntry, len(sorted))
	for i, k := range sorted {
		entries[i] = km.acquire(k)
	}

	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			km.release(sorted[i], entries[i])
		}
	}
}

func (km *keyedMutex) acquire(key string) *lockEntry {
	km.mu.Lock()
	e := km.locks[key]
	if e == nil {
		e = &lockEntry{}
		km.locks[key] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()
	return e
}

func (km *keyedMutex) release(key string, e *lockEntry) {
	e.mu.Unlock()

	km.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(km.locks, key)
	}
	km.mu.Unlock()
}
