//go:build debug

package throttle

import (
	"log"
	"time"
)

func (s *BucketStore[K]) Cleanup(now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log.Printf("[DEBUG][THROTTLE] cleaning buckets older than %v at %v", s.cleanupOlderThan, now)
	cnt := 0
	for gid, g := range s.groups {
		g.buckets.Range(func(id, value any) bool {
			last := value.(*Bucket[K]).idleSince()
			log.Printf("[DEBUG][THROTTLE] %s: bucket %v lastCheck = %v", gid, id, last)
			if now.Sub(last) > s.cleanupOlderThan {
				g.buckets.Delete(id)
				cnt++
			}
			return true
		})
	}
	log.Printf("[DEBUG][THROTTLE] %d buckets cleaned up", cnt)
	return cnt
}
