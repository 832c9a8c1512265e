package throttle

import (
	"sync"
	"time"
)

type BucketGroup[K comparable] struct {
	conf    *BucketConf
	buckets *sync.Map // K -> *Bucket[K]
}

func (g *BucketGroup[K]) GetBucket(id K) (*Bucket[K], bool) {
	bAny, ok := g.buckets.Load(id)
	if !ok {
		return nil, false
	}
	return bAny.(*Bucket[K]), true
}

// getOrCreate returns the bucket for id, creating a full one at now.
func (g *BucketGroup[K]) getOrCreate(id K, now time.Time) *Bucket[K] {
	bAny, _ := g.buckets.LoadOrStore(id, &Bucket[K]{
		tokens:      g.conf.Burst,
		lastCheck:   now,
		parentGroup: g,
	})
	return bAny.(*Bucket[K])
}

func (g *BucketGroup[K]) Len() int {
	n := 0
	g.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
