//go:build !debug

package throttle

import (
	"time"
)

// Cleanup drops buckets idle for longer than the configured age and returns how many went.
func (s *BucketStore[K]) Cleanup(now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cnt := 0
	for _, g := range s.groups {
		g.buckets.Range(func(id, value any) bool {
			if now.Sub(value.(*Bucket[K]).idleSince()) > s.cleanupOlderThan {
				g.buckets.Delete(id)
				cnt++
			}
			return true // continue iteration
		})
	}
	return cnt
}
