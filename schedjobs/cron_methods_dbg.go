//go:build debug

package schedjobs

import (
	"log"
	"time"
)

func (job *CronJob) Matches(now time.Time) bool {
	ok := job.matches(now)
	log.Printf("[DEBUG][SCHED] %s at %v: Minutes=%x Hours=%x DaysOfMonth=%x Weekdays=%b match=%v",
		job.ID, now, job.Minutes, job.Hours, job.DaysOfMonth, job.Weekdays, ok)
	return ok
}
