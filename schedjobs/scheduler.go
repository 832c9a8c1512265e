package schedjobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zeptools/gw-contracts/svc"
)

// Scheduler runs cron jobs on minute ticks. It implements svc.Service.
type Scheduler struct {
	Ctx      context.Context    // Service Context
	cancel   context.CancelFunc // Service Context CancelFunc
	state    int                // internal service state
	done     chan error         // Shutdown Error Channel
	cronJobs []*CronJob
	mu       sync.Mutex
	wg       sync.WaitGroup
	Now      func() time.Time
	// Default Callbacks
	OnCronJobAdded    func(job *CronJob)
	OnCronJobFinished func(job *CronJob, err error)
	OnCronJobDeleted  func(job *CronJob)
}

func (s *Scheduler) Name() string {
	return "JobScheduler"
}

func NewScheduler(parentCtx context.Context) *Scheduler {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Scheduler{
		Ctx:    svcCtx,
		cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Now:    time.Now,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	go s.loop()
	log.Printf("[INFO][SCHED] job scheduler started with %d cron jobs", len(s.cronJobs))
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != svc.StateRUNNING {
		s.mu.Unlock()
		log.Println("[ERROR][SCHED] cannot stop. not running")
		return
	}
	s.state = svc.StateSTOPPED
	s.mu.Unlock()
	s.cancel()
}

func (s *Scheduler) Done() <-chan error {
	return s.done
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick(s.Now())
		case <-s.Ctx.Done():
			s.wg.Wait() // wait for running tasks
			log.Println("[INFO][SCHED] job scheduler stopped")
			s.done <- nil
			return
		}
	}
}

// Tick runs every cron job matching now and returns how many were started.
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	jobs := append([]*CronJob(nil), s.cronJobs...) // copy jobs so unlocking early is possible
	s.mu.Unlock()
	n := 0
	for _, job := range jobs {
		if job.Matches(now) {
			s.runCronJob(job)
			n++
		}
	}
	return n
}

// Wait blocks until the running tasks finish.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runCronJob(job *CronJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC][SCHED] recovered in cron job %s: %v", job.ID, r)
			}
		}()
		err := job.Task(s.Ctx)
		if err != nil {
			log.Printf("[ERROR][SCHED] cron job %s: %v", job.ID, err)
		}
		if job.OnFinished != nil {
			job.OnFinished(err)
		}
		if s.OnCronJobFinished != nil {
			s.OnCronJobFinished(job, err)
		}
	}()
}

func (s *Scheduler) AddCronJob(job *CronJob) {
	s.mu.Lock()
	s.cronJobs = append(s.cronJobs, job)
	s.mu.Unlock()
	if job.OnAdded != nil { // Job-specific callback
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Println("[PANIC] Recovered in job.OnAdded:", r)
				}
			}()
			job.OnAdded()
		}()
	}
	if s.OnCronJobAdded != nil { // Scheduler-level default callback
		s.OnCronJobAdded(job)
	}
}

// GetCronJobs returns a copy of all registered cron jobs
func (s *Scheduler) GetCronJobs() []*CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*CronJob(nil), s.cronJobs...)
}

// DeleteCronJob removes a cron job by its ID
func (s *Scheduler) DeleteCronJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	newJobs := s.cronJobs[:0] // reuse underlying array
	for _, job := range s.cronJobs {
		if job.ID != jobID {
			newJobs = append(newJobs, job)
		} else if s.OnCronJobDeleted != nil {
			s.OnCronJobDeleted(job)
		}
	}
	s.cronJobs = newJobs
}
