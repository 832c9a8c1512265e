package schedjobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsEveryNMinutes(t *testing.T) {
	assert.Equal(t, BitsFromMinutes([]int{0, 15, 30, 45}), BitsEveryNMinutes(15))
	assert.Equal(t, AllMinutes, BitsEveryNMinutes(0))
	assert.Equal(t, BitsFromMinutes([]int{0}), BitsEveryNMinutes(60))
}

func TestCronMatches(t *testing.T) {
	job := NewEveryNMinCronJob("sweep", 5, nil)
	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC) }
	assert.True(t, job.Matches(at(10, 0)))
	assert.True(t, job.Matches(at(10, 55)))
	assert.False(t, job.Matches(at(10, 7)))

	job.Weekdays = BitsFromWeekdays([]int{0}) // sundays only; 2026-03-02 is a monday
	assert.False(t, job.Matches(at(10, 0)))
	job.Weekdays = AllWeekdays
	job.DaysOfMonth = BitsFromDaysOfMonth([]int{2})
	job.Hours = BitsFromHours([]int{10})
	assert.True(t, job.Matches(at(10, 5)))
	assert.False(t, job.Matches(at(11, 5)))
}

func TestSchedulerTick(t *testing.T) {
	s := NewScheduler(context.Background())
	var runs atomic.Int32
	done := make(chan error, 4)
	s.OnCronJobFinished = func(job *CronJob, err error) {
		done <- err
	}
	s.AddCronJob(NewEveryNMinCronJob("ok", 5, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.AddCronJob(NewEveryNMinCronJob("fails", 10, func(context.Context) error {
		return errors.New("boom")
	}))
	require.Len(t, s.GetCronJobs(), 2)

	assert.Equal(t, 1, s.Tick(time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)))
	assert.NoError(t, <-done)
	assert.Equal(t, 2, s.Tick(time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)))
	failures := 0
	for i := 0; i < 2; i++ {
		if <-done != nil {
			failures++
		}
	}
	s.Wait()
	assert.EqualValues(t, 2, runs.Load())
	assert.Equal(t, 1, failures)

	s.DeleteCronJob("fails")
	assert.Len(t, s.GetCronJobs(), 1)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(context.Background())
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	s.Stop()
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, "JobScheduler", s.Name())
}
