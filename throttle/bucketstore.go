package throttle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zeptools/gw-contracts/svc"
)

// BucketStore holds token-bucket groups and runs their cleanup as a svc.Service.
type BucketStore[K comparable] struct {
	Ctx              context.Context    // Service Context
	cancel           context.CancelFunc // Service Context CancelFunc
	mu               sync.RWMutex
	state            int        // internal service state
	done             chan error // Shutdown Error Channel
	cleanupCycle     time.Duration
	cleanupOlderThan time.Duration
	groups           map[string]*BucketGroup[K]
}

func (s *BucketStore[K]) Name() string {
	return "ThrottleBucketStore"
}

func NewBucketStore[K comparable](parentCtx context.Context, cleanupCycle time.Duration, cleanupOlderThan time.Duration) *BucketStore[K] {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &BucketStore[K]{
		Ctx:              svcCtx,
		cancel:           svcCancel,
		state:            svc.StateREADY,
		done:             make(chan error, 1),
		cleanupCycle:     cleanupCycle,
		cleanupOlderThan: cleanupOlderThan,
		groups:           make(map[string]*BucketGroup[K]),
	}
}

// Start starts the cleanup loop
func (s *BucketStore[K]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	if s.cleanupCycle <= 0 {
		return fmt.Errorf("invalid cleanup cycle %v", s.cleanupCycle)
	}
	s.state = svc.StateRUNNING
	log.Printf("[INFO][THROTTLE] cleanup service started cycle=%v exp=%v", s.cleanupCycle, s.cleanupOlderThan)
	go s.run()
	return nil
}

func (s *BucketStore[K]) Stop() {
	s.mu.Lock()
	if s.state != svc.StateRUNNING {
		s.mu.Unlock()
		log.Println("[ERROR][THROTTLE] cannot stop. not running")
		return
	}
	s.state = svc.StateSTOPPED
	s.mu.Unlock()
	s.cancel()
}

func (s *BucketStore[K]) Done() <-chan error {
	return s.done
}

func (s *BucketStore[K]) run() {
	ticker := time.NewTicker(s.cleanupCycle)
	defer ticker.Stop()
	for {
		select {
		case <-s.Ctx.Done():
			log.Println("[INFO][THROTTLE] service stopped")
			s.done <- nil
			return
		case now := <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[PANIC][THROTTLE] recovered in cleanup: %v", r)
					}
				}()
				s.Cleanup(now)
			}()
		}
	}
}

func (s *BucketStore[K]) GetBucketGroup(id string) (*BucketGroup[K], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g, ok
}

func (s *BucketStore[K]) GetBucket(groupID string, userID K) (*Bucket[K], bool) {
	g, ok := s.GetBucketGroup(groupID)
	if !ok {
		return nil, false
	}
	return g.GetBucket(userID)
}

func (s *BucketStore[K]) SetBucketGroup(id string, conf *BucketConf) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[id] = &BucketGroup[K]{
		conf:    conf,
		buckets: &sync.Map{},
	}
}

// Allow consumes one token of userID's bucket in the group.
func (s *BucketStore[K]) Allow(groupID string, userID K, now time.Time) bool {
	g, ok := s.GetBucketGroup(groupID)
	if !ok {
		return false // Invalid groupID always Blocked
	}
	return g.getOrCreate(userID, now).Allow(now)
}

// Len counts buckets across groups.
func (s *BucketStore[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, g := range s.groups {
		n += g.Len()
	}
	return n
}
