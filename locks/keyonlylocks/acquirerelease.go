package keyonlylocks

import (
	"slices"
	"sync"
)

// AcquireLocks takes every key or none. It never waits.
func AcquireLocks(lockStore *sync.Map, keys []string) ([]string, bool) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)
	var acquired []string
	for _, key := range keys {
		_, loaded := lockStore.LoadOrStore(key, struct{}{})
		if loaded {
			// rollback previously acquired locks
			ReleaseLocks(lockStore, acquired)
			return nil, false
		}
		acquired = append(acquired, key)
	}
	return acquired, true
}

// ReleaseLocks delete locks from the lockStore *sync.Map
// Wrap this in deferred calls to guarantee to be called even if panic occurs.
func ReleaseLocks(lockStore *sync.Map, keys []string) {
	for _, key := range keys {
		lockStore.Delete(key)
	}
}

// TryLock acquires keys and returns their release func, or ok=false when any is held.
func TryLock(lockStore *sync.Map, keys ...string) (release func(), ok bool) {
	acquired, ok := AcquireLocks(lockStore, keys)
	if !ok {
		return func() {}, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { ReleaseLocks(lockStore, acquired) })
	}, true
}
